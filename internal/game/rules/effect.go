package rules

import "github.com/gridspell/gridspell-server/internal/game/board"

// EffectKind identifies the type of a queued effect. The resolver switches
// exhaustively over these; adding a kind is a compile-visible change.
type EffectKind string

const (
	EffectManaPay               EffectKind = "MANA_PAY"
	EffectManaGain              EffectKind = "MANA_GAIN"
	EffectDamage                EffectKind = "DAMAGE"
	EffectHeal                  EffectKind = "HEAL"
	EffectMove                  EffectKind = "MOVE"
	EffectDraw                  EffectKind = "DRAW"
	EffectDrawCata              EffectKind = "DRAW_CATA"
	EffectDiscard               EffectKind = "DISCARD"
	EffectBurn                  EffectKind = "BURN"
	EffectInstall               EffectKind = "INSTALL"
	EffectInstallAfterSelection EffectKind = "INSTALL_AFTER_SELECTION"
	EffectCastExecute           EffectKind = "CAST_EXECUTE"
	EffectTurnStart             EffectKind = "TURN_START"
	EffectTurnEnd               EffectKind = "TURN_END"
	EffectChangeTurn            EffectKind = "CHANGE_TURN"
	EffectTriggered             EffectKind = "TRIGGERED_EFFECT"
	EffectFlushResolve          EffectKind = "FLUSH_RESOLVE"
)

// Target selects who an effect applies to, relative to the effect's owner.
type Target string

const (
	TargetSelf      Target = "self"
	TargetEnemy     Target = "enemy"
	TargetNearEnemy Target = "near_enemy"
)

// Invert flips self/enemy targeting. near_enemy is unchanged: proximity is
// measured from whoever the effect's actor ends up being.
func (t Target) Invert() Target {
	switch t {
	case TargetSelf:
		return TargetEnemy
	case TargetEnemy:
		return TargetSelf
	default:
		return t
	}
}

// Method selects where discard/burn effects take cards from.
type Method string

const (
	MethodDeckRandom Method = "deck_random"
	MethodDeckTop    Method = "deck_top"
	MethodHandChoose Method = "hand_choose"
	MethodHandRandom Method = "hand_random"
)

// Condition gates an individual effect at resolution time. Conditions are
// evaluated against live state when the effect is popped, not when it was
// compiled.
type Condition string

const (
	CondNone             Condition = ""
	CondSelfDeckEmpty    Condition = "if_self_deck_empty"
	CondSelfDeckEmptyNot Condition = "if_self_deck_empty_not"
	CondSelfHandEmpty    Condition = "if_self_hand_empty"
	CondSelfHandEmptyNot Condition = "if_self_hand_empty_not"
	CondEnemyDeadNot     Condition = "if_enemy_dead_not"
	CondCataDeckEmptyNot Condition = "if_cata_deck_empty_not"
)

// TriggerKind identifies when a card's configured effects fire.
type TriggerKind string

const (
	TriggerOnCast       TriggerKind = "onCast"
	TriggerOnTurnStart  TriggerKind = "onTurnStart"
	TriggerOnTurnEnd    TriggerKind = "onTurnEnd"
	TriggerOnDestroy    TriggerKind = "onDestroy"
	TriggerOnUsePerTurn TriggerKind = "onUsePerTurn"
	TriggerOnDrawn      TriggerKind = "onDrawn"
)

// KnownTrigger reports whether k is a recognized trigger kind.
func KnownTrigger(k TriggerKind) bool {
	switch k {
	case TriggerOnCast, TriggerOnTurnStart, TriggerOnTurnEnd,
		TriggerOnDestroy, TriggerOnUsePerTurn, TriggerOnDrawn:
		return true
	}
	return false
}

// Amount is an effect magnitude: either a literal or a symbolic expression
// resolved against live state at execution time (e.g. "count(rituals_installed)").
type Amount struct {
	Literal int
	Symbol  string
}

// LiteralAmount builds a plain numeric amount.
func LiteralAmount(n int) Amount { return Amount{Literal: n} }

// Effect is a single unit of pending work on the effect stack. Effects are
// transient: created, pushed, resolved, discarded.
type Effect struct {
	Kind   EffectKind
	Player string // owner/actor of the effect

	CardID   string // static card the effect originated from, if any
	SourceID string // installed object (ritual) the effect originated from, if any

	Value     Amount
	Target    Target
	Range     int
	Condition Condition
	Method    Method

	// Movement/placement. Dest is an absolute board position; Direction is a
	// one-step move in the actor's frame. Exactly one is set for EffectMove.
	Dest      *board.Position
	Direction board.Direction

	// Triggered-effect wrapper fields.
	Trigger TriggerKind
	Context map[string]string
}
