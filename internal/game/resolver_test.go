package game

import (
	"context"
	"testing"

	"github.com/gridspell/gridspell-server/internal/game/board"
	"github.com/gridspell/gridspell-server/internal/game/rules"
)

// A methodless burn marks the card being cast, by instance id, so the
// post-resolution flush sends it to the burn pile instead of the grave.
func TestBurnMarksCastCardByInstance(t *testing.T) {
	s := newTestSession(t, deckOf("immolate", 10), deckOf("vanilla", 10), nil)
	startMatch(t, s)

	p1 := s.players["p1"]
	p2 := s.players["p2"]
	castID := p1.Hand[0].InstanceID
	before := totalInstances(s)

	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: castID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	if p2.HP != 8 {
		t.Errorf("p2 hp = %d, want 8", p2.HP)
	}
	if len(p1.Burned) != 1 || p1.Burned[0].InstanceID != castID {
		t.Fatalf("burn pile = %+v, want exactly the cast card", p1.Burned)
	}
	if len(p1.Grave) != 0 {
		t.Errorf("cast card also reached the grave: %+v", p1.Grave)
	}
	if len(s.burned) != 0 {
		t.Errorf("%d burn marks left after the flush", len(s.burned))
	}
	if got := totalInstances(s); got != before {
		t.Errorf("instances = %d, want %d", got, before)
	}
}

// Deck-keyed burn methods remove from the target's deck with no grave
// transit; the cast card itself still flushes to the grave.
func TestBurnFromDeckMethods(t *testing.T) {
	s := newTestSession(t, deckOf("ember_wave", 10), deckOf("vanilla", 10), nil)
	startMatch(t, s)

	p1 := s.players["p1"]
	p2 := s.players["p2"]
	deckBefore := len(p2.Deck)
	before := totalInstances(s)

	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: p1.Hand[0].InstanceID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	if len(p2.Burned) != 3 {
		t.Errorf("p2 burned = %d, want 3", len(p2.Burned))
	}
	if len(p2.Deck) != deckBefore-3 {
		t.Errorf("p2 deck = %d, want %d", len(p2.Deck), deckBefore-3)
	}
	if len(p2.Grave) != 0 {
		t.Errorf("burned cards transited the grave: %d", len(p2.Grave))
	}
	if len(p1.Grave) != 1 {
		t.Errorf("p1 grave = %d, want the cast card only", len(p1.Grave))
	}
	if got := totalInstances(s); got != before {
		t.Errorf("instances = %d, want %d", got, before)
	}
}

// Condition tags are evaluated when the effect pops, not when it was
// queued: an earlier effect in the same trigger emptying the deck gates a
// later conditioned draw off, so no catastrophe fires either.
func TestConditionReadsLiveState(t *testing.T) {
	s := newTestSession(t, deckOf("deck_reaper", 10), deckOf("vanilla", 10), deckOf("quake", 2))
	startMatch(t, s)

	p1 := s.players["p1"]
	if len(p1.Deck) != 5 {
		t.Fatalf("p1 deck = %d, want 5", len(p1.Deck))
	}
	before := totalInstances(s)

	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: p1.Hand[0].InstanceID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	if len(p1.Deck) != 0 {
		t.Errorf("p1 deck = %d, want 0", len(p1.Deck))
	}
	// At queue time the deck held cards; by the time the conditioned draw
	// popped it was empty, so no draw and no catastrophe fall-through.
	if len(p1.Hand) != 4 {
		t.Errorf("p1 hand = %d, want 4", len(p1.Hand))
	}
	if p1.HP != 10 || len(s.cataGrave) != 0 {
		t.Errorf("catastrophe fired through a gated draw: hp=%d cata grave=%d", p1.HP, len(s.cataGrave))
	}
	if len(p1.Grave) != 6 {
		t.Errorf("p1 grave = %d, want 5 milled + the cast card", len(p1.Grave))
	}
	if got := totalInstances(s); got != before {
		t.Errorf("instances = %d, want %d", got, before)
	}
}

// Symbolic amounts resolve against live state at execution time.
func TestSymbolicAmountCountsRituals(t *testing.T) {
	s := newTestSession(t, deckOf("soul_harvest", 10), deckOf("vanilla", 10), nil)
	startMatch(t, s)

	p1 := s.players["p1"]
	p2 := s.players["p2"]

	s.rituals = append(s.rituals,
		&Ritual{ID: "sr-1", CardID: "pyre_totem", Owner: "p1", Pos: board.Position{Row: 2, Col: 0}},
		&Ritual{ID: "sr-2", CardID: "pyre_totem", Owner: "p1", Pos: board.Position{Row: 2, Col: 2}},
	)
	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: p1.Hand[0].InstanceID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if p2.HP != 8 {
		t.Errorf("p2 hp = %d, want 8 with two rituals installed", p2.HP)
	}

	// No rituals, no damage.
	s.rituals = nil
	p1.Mana = 1
	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: p1.Hand[0].InstanceID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if p2.HP != 8 {
		t.Errorf("p2 hp = %d, want 8 with no rituals", p2.HP)
	}
}

// Healing never exceeds max hp.
func TestHealClampsAtMaxHP(t *testing.T) {
	s := newTestSession(t, deckOf("mend_wave", 10), deckOf("vanilla", 10), nil)
	startMatch(t, s)

	p1 := s.players["p1"]
	p1.HP = 7
	if _, err := s.SubmitAction(context.Background(), "p1", Action{
		Type: ActionCast, InstanceID: p1.Hand[0].InstanceID,
	}); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if p1.HP != 10 {
		t.Errorf("p1 hp = %d, want 10 (5 heal clamped at max)", p1.HP)
	}
}

// onDestroy registrations are ungated bookkeeping: destruction compiles
// the trigger directly, and the entry exists so it tears down with the
// ritual's other registrations.
func TestRitualDestroyEntryIsUnconditional(t *testing.T) {
	s := newTestSession(t, deckOf("vanilla", 10), deckOf("vanilla", 10), nil)
	startMatch(t, s)

	inst := &CardInstance{InstanceID: "tot-9", CardID: "pyre_totem"}
	rit := &Ritual{ID: "r-9", CardID: "pyre_totem", Owner: "p2", Pos: board.Position{Row: 1, Col: 1}, Instance: inst}
	s.rituals = append(s.rituals, rit)
	if err := s.registerRitualObservers(context.Background(), rit); err != nil {
		t.Fatalf("register: %v", err)
	}

	wrappers := s.observers.Collect(rules.TriggerOnDestroy, map[string]string{"source": "unrelated"})
	if len(wrappers) != 1 || wrappers[0].SourceID != "r-9" {
		t.Fatalf("destroy wrappers = %+v, want one entry for r-9", wrappers)
	}

	s.observers.UnregisterBySource(rit.ID)
	if got := s.observers.Collect(rules.TriggerOnDestroy, nil); len(got) != 0 {
		t.Errorf("destroy entries survive teardown: %+v", got)
	}
}

// A catastrophe drawn by the turn draw resolves after the mana refill and
// the onTurnStart triggers: with a heal ritual at full hp, the heal clamps
// first and the catastrophe damage lands last.
func TestTurnStartCatastropheResolvesAfterTriggers(t *testing.T) {
	s := newTestSession(t, deckOf("vanilla", 10), deckOf("vanilla", 10), deckOf("quake", 1))
	startMatch(t, s)

	p1 := s.players["p1"]
	rit := &Ritual{
		ID: "idol-1", CardID: "healing_idol", Owner: "p1",
		Pos:      board.Position{Row: 3, Col: 1},
		Instance: &CardInstance{InstanceID: "idol-inst", CardID: "healing_idol"},
	}
	s.rituals = append(s.rituals, rit)
	if err := s.registerRitualObservers(context.Background(), rit); err != nil {
		t.Fatalf("register: %v", err)
	}
	p1.Deck = nil

	if _, err := s.SubmitAction(context.Background(), "p1", Action{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end turn p1: %v", err)
	}
	if _, err := s.SubmitAction(context.Background(), "p2", Action{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end turn p2: %v", err)
	}

	if len(s.cataGrave) != 1 {
		t.Fatalf("cata grave = %d, want the drawn catastrophe", len(s.cataGrave))
	}
	// Heal-then-damage: the idol's heal clamps at 10 before the quake hits.
	// Damage-first would end at 10 instead.
	if p1.HP != 9 {
		t.Errorf("p1 hp = %d, want 9", p1.HP)
	}
	if s.turn != 3 || s.activePlayer != "p1" {
		t.Errorf("turn %d active %s, want turn 3 active p1", s.turn, s.activePlayer)
	}
}
