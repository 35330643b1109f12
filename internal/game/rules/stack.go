package rules

import "sync"

// EffectStack is the last-in-first-out work list of pending effects.
type EffectStack struct {
	mu    sync.Mutex
	items []Effect
}

// NewEffectStack creates an empty effect stack.
func NewEffectStack() *EffectStack {
	return &EffectStack{
		items: make([]Effect, 0, 16),
	}
}

// Push adds a single effect to the top of the stack.
func (es *EffectStack) Push(eff Effect) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.items = append(es.items, eff)
}

// PushBatch adds an ordered batch so that popping reproduces the given order:
// the first element of the batch resolves first.
func (es *EffectStack) PushBatch(effs []Effect) {
	es.mu.Lock()
	defer es.mu.Unlock()
	for i := len(effs) - 1; i >= 0; i-- {
		es.items = append(es.items, effs[i])
	}
}

// Pop removes and returns the top effect. The second return value is false
// when the stack is empty.
func (es *EffectStack) Pop() (Effect, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if len(es.items) == 0 {
		return Effect{}, false
	}
	idx := len(es.items) - 1
	eff := es.items[idx]
	es.items = es.items[:idx]
	return eff, true
}

// IsEmpty returns whether the stack holds no effects.
func (es *EffectStack) IsEmpty() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.items) == 0
}

// Len returns the number of queued effects.
func (es *EffectStack) Len() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.items)
}

// Clear drops every queued effect. Used only on fatal abort paths such as
// the lethal game-over short-circuit.
func (es *EffectStack) Clear() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.items = es.items[:0]
}
