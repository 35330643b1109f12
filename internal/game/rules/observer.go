package rules

import (
	"sync"

	"github.com/google/uuid"
)

// Registration installs a persistent object's interest in a trigger kind.
// Entries are added when a ritual is installed and removed when it is
// destroyed; they never outlive the object that created them.
type Registration struct {
	ID       string
	Owner    string
	CardID   string
	SourceID string // installed object (ritual) the registration belongs to
	Trigger  TriggerKind

	// Condition, when set, further gates the registration against the fire
	// context. A nil condition always matches.
	Condition func(ctx map[string]string) bool
}

// ObserverRegistry maps trigger kinds to active card-trigger registrations
// and converts a fired trigger into queued triggered-effect wrappers.
type ObserverRegistry struct {
	mu   sync.Mutex
	regs []Registration
}

// NewObserverRegistry creates an empty registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{}
}

// Register adds an entry and returns its id.
func (or *ObserverRegistry) Register(reg Registration) string {
	or.mu.Lock()
	defer or.mu.Unlock()
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	or.regs = append(or.regs, reg)
	return reg.ID
}

// UnregisterBySource removes every entry installed by the given object.
// Removal is keyed by source instance rather than static card id so that two
// rituals sharing a card id are torn down independently.
func (or *ObserverRegistry) UnregisterBySource(sourceID string) {
	or.mu.Lock()
	defer or.mu.Unlock()
	kept := or.regs[:0]
	for _, reg := range or.regs {
		if reg.SourceID != sourceID {
			kept = append(kept, reg)
		}
	}
	or.regs = kept
}

// UnregisterByCard removes every entry referencing the given static card id.
func (or *ObserverRegistry) UnregisterByCard(cardID string) {
	or.mu.Lock()
	defer or.mu.Unlock()
	kept := or.regs[:0]
	for _, reg := range or.regs {
		if reg.CardID != cardID {
			kept = append(kept, reg)
		}
	}
	or.regs = kept
}

// Collect returns one triggered-effect wrapper per registration matching the
// fired trigger kind and context. The wrappers carry enough context for the
// card effect interpreter to expand them later.
func (or *ObserverRegistry) Collect(trigger TriggerKind, ctx map[string]string) []Effect {
	or.mu.Lock()
	defer or.mu.Unlock()

	var out []Effect
	for _, reg := range or.regs {
		if reg.Trigger != trigger {
			continue
		}
		if reg.Condition != nil && !reg.Condition(ctx) {
			continue
		}
		out = append(out, Effect{
			Kind:     EffectTriggered,
			Player:   reg.Owner,
			CardID:   reg.CardID,
			SourceID: reg.SourceID,
			Trigger:  trigger,
			Context:  ctx,
		})
	}
	return out
}

// Len returns the number of active registrations.
func (or *ObserverRegistry) Len() int {
	or.mu.Lock()
	defer or.mu.Unlock()
	return len(or.regs)
}
