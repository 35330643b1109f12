// Package user implements account registration and login.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridspell/gridspell-server/internal/repository"
)

var (
	// ErrNameTaken is returned when registering an existing account name.
	ErrNameTaken = errors.New("account name already taken")
	// ErrBadCredentials is returned on login failure. The caller cannot
	// distinguish a missing account from a wrong password.
	ErrBadCredentials = errors.New("bad credentials")
)

// Manager handles accounts.
type Manager struct {
	repo   *repository.UserRepository
	logger *zap.Logger
}

// NewManager creates a user manager.
func NewManager(repo *repository.UserRepository, logger *zap.Logger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

// Register creates an account with a bcrypt-hashed password and returns the
// new user id.
func (m *Manager) Register(ctx context.Context, name, password string) (string, error) {
	if len(name) < 3 || len(name) > 32 {
		return "", fmt.Errorf("account name must be 3-32 characters")
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	if _, err := m.repo.GetByName(ctx, name); err == nil {
		return "", ErrNameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := repository.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := m.repo.Create(ctx, u); err != nil {
		return "", err
	}
	m.logger.Info("account registered", zap.String("user", name))
	return u.ID, nil
}

// Login verifies credentials and returns the account.
func (m *Manager) Login(ctx context.Context, name, password string) (*repository.User, error) {
	u, err := m.repo.GetByName(ctx, name)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}
