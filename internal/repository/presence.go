package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/config"
)

const roomKeyPrefix = "gridspell:room:"

// RoomRecord is the public listing entry for an open room.
type RoomRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Players   []string  `json:"players"`
	Started   bool      `json:"started"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PresenceStore publishes room listings to Redis with a liveness TTL, so a
// lobby can be served without touching the per-room engines. All writes are
// best-effort; the game does not depend on Redis being up.
type PresenceStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPresenceStore connects to Redis. A nil store is returned without error
// when no address is configured, and every method on a nil store is a no-op.
func NewPresenceStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*PresenceStore, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &PresenceStore{rdb: rdb, ttl: 5 * time.Minute, logger: logger}, nil
}

// Publish writes one room record.
func (s *PresenceStore) Publish(ctx context.Context, rec RoomRecord) {
	if s == nil {
		return
	}
	rec.UpdatedAt = time.Now()
	raw, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("encode room record", zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, roomKeyPrefix+rec.ID, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("publish room presence", zap.String("room_id", rec.ID), zap.Error(err))
	}
}

// Remove drops a room record.
func (s *PresenceStore) Remove(ctx context.Context, roomID string) {
	if s == nil {
		return
	}
	if err := s.rdb.Del(ctx, roomKeyPrefix+roomID).Err(); err != nil {
		s.logger.Warn("remove room presence", zap.String("room_id", roomID), zap.Error(err))
	}
}

// List returns all published room records.
func (s *PresenceStore) List(ctx context.Context) []RoomRecord {
	if s == nil {
		return nil
	}
	keys, err := s.rdb.Keys(ctx, roomKeyPrefix+"*").Result()
	if err != nil {
		s.logger.Warn("list room presence", zap.Error(err))
		return nil
	}
	var out []RoomRecord
	for _, key := range keys {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var rec RoomRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Close releases the Redis connection.
func (s *PresenceStore) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
