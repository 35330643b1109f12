package game

import (
	"github.com/gridspell/gridspell-server/internal/game/board"
)

// Phase is the match-level state machine. Exactly one holder; transitions
// only through the session.
type Phase string

const (
	PhaseWaitingForMulligan     Phase = "WAITING_FOR_MULLIGAN"
	PhaseResolving              Phase = "RESOLVING"
	PhaseWaitingForPlayerAction Phase = "WAITING_FOR_PLAYER_ACTION"
	PhaseWaitingForPlayerInput  Phase = "WAITING_FOR_PLAYER_INPUT"
	PhaseGameOver               Phase = "GAME_OVER"
)

// WinnerDraw is the winner value when no player survives.
const WinnerDraw = "draw"

// Config carries the tunable match constants.
type Config struct {
	BoardWidth  int
	BoardHeight int
	StartingHP  int
	ManaCap     int
	ManaPerTurn int
	OpeningHand int
	HandLimit   int
	LogWindow   int
}

// DefaultConfig returns the standard duel parameters.
func DefaultConfig() Config {
	return Config{
		BoardWidth:  3,
		BoardHeight: 5,
		StartingHP:  10,
		ManaCap:     10,
		ManaPerTurn: 1,
		OpeningHand: 4,
		HandLimit:   7,
		LogWindow:   50,
	}
}

// CardInstance is one physical copy of a card inside a match. All behavior
// is resolved externally through the card provider by CardID.
type CardInstance struct {
	InstanceID string `json:"instanceId"`
	CardID     string `json:"cardId"`
}

// DeckEntry is one line of a resolved deck list.
type DeckEntry struct {
	CardID string `json:"cardId"`
	Count  int    `json:"count"`
}

// DeckList is a player's resolved initial deck composition.
type DeckList []DeckEntry

// Ritual is a persistent object installed on the board.
type Ritual struct {
	ID           string
	CardID       string
	Owner        string
	Pos          board.Position
	UsedThisTurn bool
	Instance     *CardInstance
}

// playerState is the authoritative per-player state.
type playerState struct {
	ID      string
	HP      int
	MaxHP   int
	Mana    int
	MaxMana int

	Hand   []*CardInstance
	Deck   []*CardInstance
	Grave  []*CardInstance
	Burned []*CardInstance

	HandLimit    int
	MulliganDone bool

	// ResolveStack holds card instances mid-resolution awaiting a final
	// destination (grave, burn pile, or reinstallation).
	ResolveStack []*CardInstance
}

func (p *playerState) alive() bool { return p.HP > 0 }

// removeFromHand removes and returns the instance with the given id, or nil.
func (p *playerState) removeFromHand(instanceID string) *CardInstance {
	for i, inst := range p.Hand {
		if inst.InstanceID == instanceID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return inst
		}
	}
	return nil
}

// InputKind tags what a pending input asks for.
type InputKind string

const (
	InputMapSelection    InputKind = "map_selection"
	InputOptionSelection InputKind = "option_selection"
	InputText            InputKind = "text"
)

// inputPurpose routes an answered input back into the right continuation.
type inputPurpose string

const (
	purposeInstall inputPurpose = "install"
	purposeDiscard inputPurpose = "discard"
)

// pendingInput is the single outstanding player-choice request that suspends
// the resolve loop. At most one exists per match; it is owned by the session
// and never ambient state.
type pendingInput struct {
	PlayerID   string
	Kind       InputKind
	Purpose    inputPurpose
	SourceCard string
	SourceID   string

	// Positions are legal cells in the authoritative frame (map selection).
	Positions []board.Position
	// Options are legal instance ids (option selection).
	Options []string

	// Remaining counts choices still owed, e.g. multi-card discards.
	Remaining int
	Range     int
	// Actor is the owner of the suspended effect, which may differ from the
	// player who owes the answer.
	Actor string
}
