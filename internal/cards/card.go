// Package cards holds static card metadata, the async lookup boundary, and
// the data-driven effect-configuration interpreter.
package cards

import (
	"context"
	"errors"
	"sync"
)

// Type classifies a card.
type Type string

const (
	TypeInstant     Type = "instant"
	TypeRitual      Type = "ritual"
	TypeCatastrophe Type = "catastrophe"
)

// ErrNotFound is returned by providers when a card id is unknown.
var ErrNotFound = errors.New("card not found")

// Card is the static definition of a card. Instances in a match reference
// cards by id only; behavior is never embedded in the instance.
type Card struct {
	ID       string
	Name     string
	ManaCost int
	Type     Type
	Config   *EffectConfig
}

// Provider resolves card metadata by id. Implementations may involve I/O;
// the engine never assumes synchronous availability.
type Provider interface {
	Lookup(ctx context.Context, cardID string) (*Card, error)
}

// StaticProvider serves cards from an in-memory map. Used in tests and when
// running without a database.
type StaticProvider struct {
	byID map[string]*Card
}

// NewStaticProvider builds a provider over the given cards.
func NewStaticProvider(list []*Card) *StaticProvider {
	byID := make(map[string]*Card, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	return &StaticProvider{byID: byID}
}

// Lookup implements Provider.
func (p *StaticProvider) Lookup(_ context.Context, cardID string) (*Card, error) {
	c, ok := p.byID[cardID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// CachingProvider memoizes successful lookups from an underlying provider.
// Static card data is immutable, so entries never expire.
type CachingProvider struct {
	inner Provider

	mu    sync.RWMutex
	cache map[string]*Card
}

// NewCachingProvider wraps inner with an unbounded memoization layer.
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		cache: make(map[string]*Card),
	}
}

// Lookup implements Provider.
func (p *CachingProvider) Lookup(ctx context.Context, cardID string) (*Card, error) {
	p.mu.RLock()
	c, ok := p.cache[cardID]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err := p.inner.Lookup(ctx, cardID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[cardID] = c
	p.mu.Unlock()
	return c, nil
}
