package game

import "github.com/gridspell/gridspell-server/internal/game/board"

// ActionType tags a player-submitted action.
type ActionType string

const (
	ActionCast      ActionType = "cast"
	ActionMove      ActionType = "move"
	ActionUseRitual ActionType = "use_ritual"
	ActionEndTurn   ActionType = "end_turn"
)

// Action is a well-formed request from the active player. Positions arrive
// in the sender's viewer frame and are normalized on entry.
type Action struct {
	Type       ActionType      `json:"type"`
	InstanceID string          `json:"instanceId,omitempty"`
	RitualID   string          `json:"ritualId,omitempty"`
	Target     *board.Position `json:"target,omitempty"`
}

// InputAnswer resolves a pending input. Position answers arrive in the
// sender's viewer frame.
type InputAnswer struct {
	Position   *board.Position `json:"position,omitempty"`
	InstanceID string          `json:"instanceId,omitempty"`
	Text       string          `json:"text,omitempty"`
}

// InvalidReason is the stable reason code attached to a rejected action.
// Rejections leave state untouched; resubmission is the only retry.
type InvalidReason string

const (
	ReasonGameOver         InvalidReason = "game_over"
	ReasonNotStarted       InvalidReason = "not_started"
	ReasonWrongPhase       InvalidReason = "wrong_phase"
	ReasonNotYourTurn      InvalidReason = "not_your_turn"
	ReasonNotSeated        InvalidReason = "not_seated"
	ReasonInsufficientMana InvalidReason = "insufficient_mana"
	ReasonCardNotInHand    InvalidReason = "card_not_in_hand"
	ReasonBadTarget        InvalidReason = "bad_target"
	ReasonUnknownCard      InvalidReason = "unknown_card"
	ReasonUnknownAction    InvalidReason = "unknown_action"
	ReasonRitualNotFound   InvalidReason = "ritual_not_found"
	ReasonRitualUsed       InvalidReason = "ritual_used"
	ReasonNoPendingInput   InvalidReason = "no_pending_input"
	ReasonNotYourInput     InvalidReason = "not_your_input"
	ReasonBadAnswer        InvalidReason = "bad_answer"
	ReasonAlreadyMulligan  InvalidReason = "already_mulliganed"
	ReasonBadMulligan      InvalidReason = "bad_mulligan"
	ReasonAlreadyReady     InvalidReason = "already_ready"
)
