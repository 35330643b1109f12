package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gridspell/gridspell-server/internal/cards"
)

// CardRepository serves static card metadata from Postgres. Effect
// configurations are stored as JSONB and validated on read; a card with a
// malformed configuration is unusable as a whole.
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a card repository over db.
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// Lookup implements cards.Provider.
func (r *CardRepository) Lookup(ctx context.Context, cardID string) (*cards.Card, error) {
	var def cards.CardDef
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, name, mana_cost, type, effect_config
		   FROM cards WHERE id = $1`,
		cardID,
	).Scan(&def.ID, &def.Name, &def.ManaCost, &def.Type, &def.Effect)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cards.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query card %s: %w", cardID, err)
	}
	return cards.FromDef(def)
}

// Upsert writes one card definition, replacing any existing row.
func (r *CardRepository) Upsert(ctx context.Context, def cards.CardDef) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO cards (id, name, mana_cost, type, effect_config)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   mana_cost = EXCLUDED.mana_cost,
		   type = EXCLUDED.type,
		   effect_config = EXCLUDED.effect_config`,
		def.ID, def.Name, def.ManaCost, def.Type, def.Effect,
	)
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", def.ID, err)
	}
	return nil
}

// ListIDsByType returns the ids of every card of the given type.
func (r *CardRepository) ListIDsByType(ctx context.Context, t cards.Type) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT id FROM cards WHERE type = $1 ORDER BY id`, string(t))
	if err != nil {
		return nil, fmt.Errorf("list %s cards: %w", t, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListIDs returns every known card id.
func (r *CardRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT id FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
