// Package room tracks open rooms and owns one game session per room.
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/cards"
	"github.com/gridspell/gridspell-server/internal/game"
	"github.com/gridspell/gridspell-server/internal/repository"
)

var (
	// ErrRoomNotFound is returned when a room id is unknown.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when joining a room with two seated players.
	ErrRoomFull = errors.New("room full")
)

// Room is one open match. Players seat in join order; the first seat is
// pinned to the bottom side of the board for the whole match.
type Room struct {
	ID   string
	Name string

	mu       sync.Mutex
	seats    []string
	decks    map[string]game.DeckList
	session  *game.Session
	recorder *game.Recorder
}

// Session returns the engine session, or nil before both players joined.
func (r *Room) Session() *game.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Recorder returns the match recorder, or nil when recording is disabled
// or the match has not started.
func (r *Room) Recorder() *game.Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorder
}

// Seats returns the seated player ids in order.
func (r *Room) Seats() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seats...)
}

// Manager tracks rooms and creates engine sessions.
type Manager struct {
	logger   *zap.Logger
	provider cards.Provider
	presence *repository.PresenceStore
	cfg      game.Config
	cata     game.DeckList

	replayDir string

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager creates a room manager. cata is the shared catastrophe deck
// composition used by every match.
func NewManager(provider cards.Provider, presence *repository.PresenceStore, cfg game.Config, cata game.DeckList, logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger,
		provider: provider,
		presence: presence,
		cfg:      cfg,
		cata:     cata,
		rooms:    make(map[string]*Room),
	}
}

// EnableReplays turns on match recording. Finished matches are saved to
// dir when their room is closed.
func (m *Manager) EnableReplays(dir string) {
	m.replayDir = dir
}

// Create opens a new empty room.
func (m *Manager) Create(ctx context.Context, name string) *Room {
	r := &Room{
		ID:    uuid.NewString(),
		Name:  name,
		decks: make(map[string]game.DeckList),
	}
	m.mu.Lock()
	m.rooms[r.ID] = r
	m.mu.Unlock()

	m.publish(ctx, r)
	m.logger.Info("room created", zap.String("room_id", r.ID), zap.String("name", name))
	return r
}

// Get looks a room up by id.
func (m *Manager) Get(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// List returns the published view of open rooms.
func (m *Manager) List(ctx context.Context) []repository.RoomRecord {
	if recs := m.presence.List(ctx); recs != nil {
		return recs
	}
	// Redis unavailable or unconfigured: fall back to local state.
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.RoomRecord, 0, len(m.rooms))
	for _, r := range m.rooms {
		r.mu.Lock()
		out = append(out, repository.RoomRecord{
			ID:      r.ID,
			Name:    r.Name,
			Players: append([]string(nil), r.seats...),
			Started: r.session != nil,
		})
		r.mu.Unlock()
	}
	return out
}

// Join seats a player with their chosen deck. The deck list is validated
// against the card catalog before the seat is taken; once the second player
// is seated the engine session is created.
func (m *Manager) Join(ctx context.Context, roomID, userID string, deck game.DeckList) (*Room, error) {
	r, err := m.Get(roomID)
	if err != nil {
		return nil, err
	}
	if err := m.validateDeck(ctx, deck); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pid := range r.seats {
		if pid == userID {
			return r, nil // rejoin keeps the original seat and deck
		}
	}
	if len(r.seats) >= 2 {
		return nil, ErrRoomFull
	}
	r.seats = append(r.seats, userID)
	r.decks[userID] = deck

	if len(r.seats) == 2 {
		seed := time.Now().UnixNano()
		rng := rand.New(rand.NewSource(seed))
		r.session = game.NewSession(r.ID, m.cfg, m.provider, r.decks, m.cata, r.seats, rng, m.logger)
		if m.replayDir != "" {
			r.recorder = game.NewRecorder(r.ID, seed, m.cfg, r.seats, r.decks, m.cata)
			r.session.AttachRecorder(r.recorder)
		}
		m.logger.Info("session created",
			zap.String("room_id", r.ID),
			zap.Strings("players", r.seats),
		)
	}

	m.publishLocked(ctx, r)
	return r, nil
}

// Close removes a finished or abandoned room, saving its recording when
// one was made.
func (m *Manager) Close(ctx context.Context, roomID string) {
	m.mu.Lock()
	r := m.rooms[roomID]
	delete(m.rooms, roomID)
	m.mu.Unlock()

	if r != nil && m.replayDir != "" {
		if rec := r.Recorder(); rec != nil {
			if err := rec.SaveToFile(m.replayDir); err != nil {
				m.logger.Warn("save replay", zap.String("room_id", roomID), zap.Error(err))
			}
		}
	}
	m.presence.Remove(ctx, roomID)
	m.logger.Info("room closed", zap.String("room_id", roomID))
}

func (m *Manager) validateDeck(ctx context.Context, deck game.DeckList) error {
	if len(deck) == 0 {
		return fmt.Errorf("empty deck")
	}
	for _, entry := range deck {
		if entry.Count <= 0 {
			return fmt.Errorf("card %s: bad count %d", entry.CardID, entry.Count)
		}
		if _, err := m.provider.Lookup(ctx, entry.CardID); err != nil {
			return fmt.Errorf("card %s: %w", entry.CardID, err)
		}
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, r *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.publishLocked(ctx, r)
}

func (m *Manager) publishLocked(ctx context.Context, r *Room) {
	m.presence.Publish(ctx, repository.RoomRecord{
		ID:      r.ID,
		Name:    r.Name,
		Players: append([]string(nil), r.seats...),
		Started: r.session != nil,
	})
}
