package game

import "github.com/gridspell/gridspell-server/internal/game/board"

// FoggedState is the partial, viewer-specific projection of match state:
// the viewer's own hand with exact counts, opponent counts only, and board
// positions expressed in the viewer's "I am always at the bottom" frame.
// Derived on demand, never stored.
type FoggedState struct {
	Phase        Phase  `json:"phase"`
	Turn         int    `json:"turn"`
	ActivePlayer string `json:"activePlayer"`
	Winner       string `json:"winner,omitempty"`

	You      SelfView     `json:"you"`
	Opponent OpponentView `json:"opponent"`

	Board          BoardView `json:"board"`
	CataDeckCount  int       `json:"cataDeckCount"`
	CataGraveCount int       `json:"cataGraveCount"`
	Logs           []string  `json:"logs"`
}

// SelfView is the viewer's own side: full hand contents.
type SelfView struct {
	PlayerID   string         `json:"playerId"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"maxHp"`
	Mana       int            `json:"mana"`
	MaxMana    int            `json:"maxMana"`
	Hand       []CardInstance `json:"hand"`
	DeckCount  int            `json:"deckCount"`
	GraveCount int            `json:"graveCount"`
	BurnCount  int            `json:"burnCount"`
}

// OpponentView exposes counts only, never hand contents.
type OpponentView struct {
	PlayerID   string `json:"playerId"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"maxHp"`
	Mana       int    `json:"mana"`
	MaxMana    int    `json:"maxMana"`
	HandCount  int    `json:"handCount"`
	DeckCount  int    `json:"deckCount"`
	GraveCount int    `json:"graveCount"`
	BurnCount  int    `json:"burnCount"`
}

// BoardView is the grid in the viewer's frame. Rituals are public objects.
type BoardView struct {
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	You      board.Position `json:"you"`
	Opponent board.Position `json:"opponent"`
	Rituals  []RitualView   `json:"rituals"`
}

// RitualView is the public projection of an installed ritual.
type RitualView struct {
	ID           string         `json:"id"`
	CardID       string         `json:"cardId"`
	Owner        string         `json:"owner"`
	Pos          board.Position `json:"pos"`
	UsedThisTurn bool           `json:"usedThisTurn"`
}

// buildPatch assembles the fogged state for one viewer plus the diff, with
// every position translated into the viewer's frame.
func (s *Session) buildPatch(viewer string, diff diffBuffer) *StatePatch {
	bottom := s.isBottom(viewer)
	self := s.players[viewer]
	opp := s.opponentOf(viewer)

	state := FoggedState{
		Phase:        s.phase,
		Turn:         s.turn,
		ActivePlayer: s.activePlayer,
		Winner:       s.winner,
		You: SelfView{
			PlayerID:   self.ID,
			HP:         self.HP,
			MaxHP:      self.MaxHP,
			Mana:       self.Mana,
			MaxMana:    self.MaxMana,
			Hand:       instanceValues(self.Hand),
			DeckCount:  len(self.Deck),
			GraveCount: len(self.Grave),
			BurnCount:  len(self.Burned),
		},
		Opponent: OpponentView{
			PlayerID:   opp.ID,
			HP:         opp.HP,
			MaxHP:      opp.MaxHP,
			Mana:       opp.Mana,
			MaxMana:    opp.MaxMana,
			HandCount:  len(opp.Hand),
			DeckCount:  len(opp.Deck),
			GraveCount: len(opp.Grave),
			BurnCount:  len(opp.Burned),
		},
		Board: BoardView{
			Width:    s.cfg.BoardWidth,
			Height:   s.cfg.BoardHeight,
			You:      board.ToViewerPos(s.cfg.BoardHeight, bottom, s.wizards[viewer]),
			Opponent: board.ToViewerPos(s.cfg.BoardHeight, bottom, s.wizards[opp.ID]),
		},
		CataDeckCount:  len(s.cataDeck),
		CataGraveCount: len(s.cataGrave),
		Logs:           append([]string(nil), s.logs...),
	}
	for _, rit := range s.rituals {
		state.Board.Rituals = append(state.Board.Rituals, RitualView{
			ID:           rit.ID,
			CardID:       rit.CardID,
			Owner:        rit.Owner,
			Pos:          board.ToViewerPos(s.cfg.BoardHeight, bottom, rit.Pos),
			UsedThisTurn: rit.UsedThisTurn,
		})
	}

	patch := &StatePatch{
		State: state,
		Logs:  append([]string(nil), diff.logs...),
	}
	for _, a := range diff.animations {
		va := a
		if a.From != nil {
			p := board.ToViewerPos(s.cfg.BoardHeight, bottom, *a.From)
			va.From = &p
		}
		if a.To != nil {
			p := board.ToViewerPos(s.cfg.BoardHeight, bottom, *a.To)
			va.To = &p
		}
		patch.Animations = append(patch.Animations, va)
	}
	return patch
}
