package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gridspell/gridspell-server/internal/game"
)

// ErrDeckNotFound is returned when no deck matches the query.
var ErrDeckNotFound = errors.New("deck not found")

// Deck is a saved deck list belonging to a user.
type Deck struct {
	ID     string
	UserID string
	Name   string
	List   game.DeckList
}

// DeckRepository persists deck lists. The list is stored as JSONB of
// {cardId, count} entries.
type DeckRepository struct {
	db *DB
}

// NewDeckRepository creates a deck repository over db.
func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

type deckEntryRow struct {
	CardID string `json:"cardId"`
	Count  int    `json:"count"`
}

// Save inserts or replaces a deck.
func (r *DeckRepository) Save(ctx context.Context, d Deck) error {
	rows := make([]deckEntryRow, len(d.List))
	for i, e := range d.List {
		rows[i] = deckEntryRow{CardID: e.CardID, Count: e.Count}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode deck list: %w", err)
	}
	_, err = r.db.pool.Exec(ctx,
		`INSERT INTO decks (id, user_id, name, list)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, list = EXCLUDED.list`,
		d.ID, d.UserID, d.Name, raw,
	)
	if err != nil {
		return fmt.Errorf("save deck %s: %w", d.ID, err)
	}
	return nil
}

// Get fetches a deck by id.
func (r *DeckRepository) Get(ctx context.Context, id string) (*Deck, error) {
	var d Deck
	var raw []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, user_id, name, list FROM decks WHERE id = $1`, id,
	).Scan(&d.ID, &d.UserID, &d.Name, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deck %s: %w", id, err)
	}

	var rows []deckEntryRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", id, err)
	}
	for _, row := range rows {
		d.List = append(d.List, game.DeckEntry{CardID: row.CardID, Count: row.Count})
	}
	return &d, nil
}

// ListByUser fetches all decks owned by a user.
func (r *DeckRepository) ListByUser(ctx context.Context, userID string) ([]Deck, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, user_id, name, list FROM decks WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var out []Deck
	for rows.Next() {
		var d Deck
		var raw []byte
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &raw); err != nil {
			return nil, err
		}
		var entries []deckEntryRow
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode deck %s: %w", d.ID, err)
		}
		for _, e := range entries {
			d.List = append(d.List, game.DeckEntry{CardID: e.CardID, Count: e.Count})
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
