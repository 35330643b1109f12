package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound is returned when no user matches the query.
var ErrUserNotFound = errors.New("user not found")

// User is a persisted account row.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository persists accounts.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a user repository over db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u User) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO users (id, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Name, err)
	}
	return nil
}

// GetByName fetches a user by account name.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*User, error) {
	var u User
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, name, password_hash, created_at FROM users WHERE name = $1`,
		name,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", name, err)
	}
	return &u, nil
}
