package game

import "github.com/gridspell/gridspell-server/internal/game/board"

// ResultKind tags an engine output destined for the transport layer.
type ResultKind string

const (
	ResultStatePatch    ResultKind = "state_patch"
	ResultRequestInput  ResultKind = "request_input"
	ResultAskMulligan   ResultKind = "ask_mulligan"
	ResultGameOver      ResultKind = "game_over"
	ResultInvalidAction ResultKind = "invalid_action"
)

// Result is one message for one player. The transport layer owns wire
// encoding and per-connection routing.
type Result struct {
	Kind     ResultKind `json:"kind"`
	PlayerID string     `json:"playerId"`

	Patch    *StatePatch     `json:"patch,omitempty"`
	Input    *InputRequest   `json:"input,omitempty"`
	Mulligan *MulliganPrompt `json:"mulligan,omitempty"`
	GameOver *GameOverInfo   `json:"gameOver,omitempty"`
	Invalid  *InvalidInfo    `json:"invalid,omitempty"`
}

// StatePatch is a per-viewer fogged projection plus the incremental diff
// accumulated since the previous patch.
type StatePatch struct {
	State      FoggedState `json:"state"`
	Animations []Animation `json:"animations"`
	Logs       []string    `json:"logs"`
}

// InputRequest asks exactly one player for a decision mid-resolution.
type InputRequest struct {
	Kind       InputKind `json:"kind"`
	SourceCard string    `json:"sourceCard,omitempty"`
	Remaining  int       `json:"remaining,omitempty"`
	Range      int       `json:"range,omitempty"`
	// Positions are legal cells in the receiving player's viewer frame.
	Positions []board.Position `json:"positions,omitempty"`
	// Options are card instance ids (e.g. choose-from-hand discards).
	Options []string `json:"options,omitempty"`
}

// MulliganPrompt carries a player's opening hand.
type MulliganPrompt struct {
	Hand []CardInstance `json:"hand"`
}

// GameOverInfo reports the terminal outcome.
type GameOverInfo struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

// InvalidInfo carries the typed rejection of a player message.
type InvalidInfo struct {
	Reason InvalidReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Animation is one renderable step of a resolution, in the receiving
// player's viewer frame.
type Animation struct {
	Kind   string          `json:"kind"`
	Player string          `json:"player,omitempty"`
	CardID string          `json:"cardId,omitempty"`
	Value  int             `json:"value,omitempty"`
	From   *board.Position `json:"from,omitempty"`
	To     *board.Position `json:"to,omitempty"`
}

// diffBuffer accumulates animations and log lines while the resolver runs.
type diffBuffer struct {
	animations []Animation
	logs       []string
}

func (d *diffBuffer) anim(a Animation) {
	d.animations = append(d.animations, a)
}

func (d *diffBuffer) log(line string) {
	d.logs = append(d.logs, line)
}
