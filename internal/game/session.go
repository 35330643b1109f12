package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/cards"
	"github.com/gridspell/gridspell-server/internal/game/board"
	"github.com/gridspell/gridspell-server/internal/game/rules"
)

// Session is the authoritative engine for a single match. All entry points
// serialize on the session mutex, held across any awaited card lookups, so
// two concurrent player messages can never interleave mid-resolution.
// Separate sessions are fully independent.
type Session struct {
	mu sync.Mutex

	id       string
	logger   *zap.Logger
	cfg      Config
	provider cards.Provider
	rng      *rand.Rand

	seats   []string // seating order; seats[0] is pinned to the bottom side
	players map[string]*playerState
	decks   map[string]DeckList
	cata    DeckList

	phase        Phase
	turn         int
	activePlayer string
	winner       string
	gameOverSent bool

	wizards map[string]board.Position
	rituals []*Ritual

	cataDeck  []*CardInstance
	cataGrave []*CardInstance

	stack     *rules.EffectStack
	observers *rules.ObserverRegistry
	pending   *pendingInput
	burned    map[string]bool // instance ids marked burn-on-flush

	ready   map[string]bool
	started bool

	recorder *Recorder
	seq      int // per-match id sequence; deterministic under replay

	logs []string // trailing window of turn events
	diff diffBuffer
}

// NewSession creates a match over two seated players. seats fixes seating
// order for the whole match; decks maps each seat to its resolved main deck,
// and cata is the shared catastrophe deck composition. The random source is
// injected for deterministic replays and tests.
func NewSession(id string, cfg Config, provider cards.Provider, decks map[string]DeckList, cata DeckList, seats []string, rng *rand.Rand, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	players := make(map[string]*playerState, len(seats))
	for _, pid := range seats {
		players[pid] = &playerState{
			ID:        pid,
			HP:        cfg.StartingHP,
			MaxHP:     cfg.StartingHP,
			HandLimit: cfg.HandLimit,
		}
	}
	return &Session{
		id:        id,
		logger:    logger.With(zap.String("match_id", id)),
		cfg:       cfg,
		provider:  provider,
		rng:       rng,
		seats:     append([]string(nil), seats...),
		players:   players,
		decks:     decks,
		cata:      cata,
		phase:     PhaseWaitingForMulligan,
		wizards:   make(map[string]board.Position, len(seats)),
		stack:     rules.NewEffectStack(),
		observers: rules.NewObserverRegistry(),
		burned:    make(map[string]bool),
		ready:     make(map[string]bool, len(seats)),
	}
}

// ID returns the match identifier.
func (s *Session) ID() string { return s.id }

// AttachRecorder makes the session record every submitted command. Attach
// before the first MarkReady or a replay will diverge.
func (s *Session) AttachRecorder(r *Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Session) record(cmd Command) {
	if s.recorder != nil {
		s.recorder.Record(cmd)
	}
}

// nextID mints a match-scoped identifier. Sequential rather than random so a
// replayed match reproduces the same instance and ritual ids.
func (s *Session) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Phase returns the current phase. Intended for the host's bookkeeping.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Winner returns the winning player id, or "" while the match is live.
func (s *Session) Winner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

// MarkReady records that a player's connection is present. Once every seat
// is ready the match initializes: decks are built and shuffled, wizards
// placed, opening hands drawn, and each player is asked to mulligan.
func (s *Session) MarkReady(_ context.Context, playerID string) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Command{Kind: CommandReady, Player: playerID})
	if _, ok := s.players[playerID]; !ok {
		return s.invalid(playerID, ReasonNotSeated, ""), nil
	}
	if s.started {
		return s.invalid(playerID, ReasonAlreadyReady, "match already started"), nil
	}
	if s.ready[playerID] {
		return s.invalid(playerID, ReasonAlreadyReady, ""), nil
	}
	s.ready[playerID] = true
	if len(s.ready) < len(s.seats) {
		return nil, nil
	}

	s.initialize()

	results := s.patchResults()
	for _, pid := range s.seats {
		results = append(results, Result{
			Kind:     ResultAskMulligan,
			PlayerID: pid,
			Mulligan: &MulliganPrompt{Hand: instanceValues(s.players[pid].Hand)},
		})
	}
	return results, nil
}

// initialize builds the initial match state once all players are present.
func (s *Session) initialize() {
	s.started = true

	midCol := s.cfg.BoardWidth / 2
	s.wizards[s.seats[0]] = board.Position{Row: s.cfg.BoardHeight - 1, Col: midCol}
	s.wizards[s.seats[1]] = board.Position{Row: 0, Col: midCol}

	for _, pid := range s.seats {
		p := s.players[pid]
		p.Deck = s.buildPile(s.decks[pid])
		board.Shuffle(s.rng, p.Deck)
		for i := 0; i < s.cfg.OpeningHand && len(p.Deck) > 0; i++ {
			p.Hand = append(p.Hand, p.Deck[0])
			p.Deck = p.Deck[1:]
		}
	}

	s.cataDeck = s.buildPile(s.cata)
	board.Shuffle(s.rng, s.cataDeck)

	s.phase = PhaseWaitingForMulligan
	s.logLine("match started")
	s.logger.Info("match initialized",
		zap.Strings("seats", s.seats),
		zap.Int("catastrophe_deck", len(s.cataDeck)),
	)
}

func (s *Session) buildPile(list DeckList) []*CardInstance {
	var pile []*CardInstance
	for _, entry := range list {
		for i := 0; i < entry.Count; i++ {
			pile = append(pile, &CardInstance{
				InstanceID: s.nextID("card"),
				CardID:     entry.CardID,
			})
		}
	}
	return pile
}

// SubmitMulligan returns the selected opening-hand cards to the bottom of
// the deck, shuffles, and redraws the same count. Only once every seated
// player has completed does the engine queue the first turn.
func (s *Session) SubmitMulligan(ctx context.Context, playerID string, indices []int) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Command{Kind: CommandMulligan, Player: playerID, Indices: append([]int(nil), indices...)})
	p, ok := s.players[playerID]
	if !ok {
		return s.invalid(playerID, ReasonNotSeated, ""), nil
	}
	if s.phase != PhaseWaitingForMulligan || !s.started {
		return s.invalid(playerID, ReasonWrongPhase, string(s.phase)), nil
	}
	if p.MulliganDone {
		return s.invalid(playerID, ReasonAlreadyMulligan, ""), nil
	}

	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Hand) || seen[idx] {
			return s.invalid(playerID, ReasonBadMulligan, fmt.Sprintf("index %d", idx)), nil
		}
		seen[idx] = true
	}

	if len(indices) > 0 {
		kept := make([]*CardInstance, 0, len(p.Hand))
		for i, inst := range p.Hand {
			if seen[i] {
				p.Deck = append(p.Deck, inst) // bottom of deck
			} else {
				kept = append(kept, inst)
			}
		}
		p.Hand = kept
		board.Shuffle(s.rng, p.Deck)
		for i := 0; i < len(indices) && len(p.Deck) > 0; i++ {
			p.Hand = append(p.Hand, p.Deck[0])
			p.Deck = p.Deck[1:]
		}
	}
	p.MulliganDone = true
	s.logLine(fmt.Sprintf("%s exchanged %d cards", playerID, len(indices)))

	for _, pid := range s.seats {
		if !s.players[pid].MulliganDone {
			return s.patchResults(), nil
		}
	}

	// All mulligans in: the opening turn is itself an effect chain.
	s.activePlayer = s.seats[0]
	s.turn = 1
	s.phase = PhaseResolving
	s.stack.Push(rules.Effect{Kind: rules.EffectTurnStart, Player: s.seats[0]})
	if err := s.resolveUntilStable(ctx); err != nil {
		return nil, err
	}
	return s.buildResults(), nil
}

// SubmitAction validates and executes one action from the active player.
// Illegal actions are rejected with a typed reason and leave state
// untouched.
func (s *Session) SubmitAction(ctx context.Context, playerID string, action Action) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Command{Kind: CommandAction, Player: playerID, Action: &action})
	if _, ok := s.players[playerID]; !ok {
		return s.invalid(playerID, ReasonNotSeated, ""), nil
	}
	if s.phase == PhaseGameOver {
		return s.invalid(playerID, ReasonGameOver, ""), nil
	}
	if !s.started {
		return s.invalid(playerID, ReasonNotStarted, ""), nil
	}
	if s.phase != PhaseWaitingForPlayerAction {
		return s.invalid(playerID, ReasonWrongPhase, string(s.phase)), nil
	}
	if playerID != s.activePlayer {
		return s.invalid(playerID, ReasonNotYourTurn, ""), nil
	}

	var reason InvalidReason
	var detail string
	var err error
	switch action.Type {
	case ActionCast:
		reason, detail, err = s.actionCast(ctx, playerID, action)
	case ActionMove:
		reason, detail = s.actionMove(playerID, action)
	case ActionUseRitual:
		reason, detail, err = s.actionUseRitual(ctx, playerID, action)
	case ActionEndTurn:
		s.stack.Push(rules.Effect{Kind: rules.EffectTurnEnd, Player: playerID})
	default:
		reason = ReasonUnknownAction
		detail = string(action.Type)
	}
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return s.invalid(playerID, reason, detail), nil
	}

	s.phase = PhaseResolving
	if err := s.resolveUntilStable(ctx); err != nil {
		return nil, err
	}
	return s.buildResults(), nil
}

// actionCast validates a cast and pushes its effect chain:
// pay cost, execute the card's onCast trigger, then flush the resolve stack.
func (s *Session) actionCast(ctx context.Context, playerID string, action Action) (InvalidReason, string, error) {
	p := s.players[playerID]

	var inst *CardInstance
	for _, h := range p.Hand {
		if h.InstanceID == action.InstanceID {
			inst = h
			break
		}
	}
	if inst == nil {
		return ReasonCardNotInHand, action.InstanceID, nil
	}

	card, err := s.provider.Lookup(ctx, inst.CardID)
	if err == cards.ErrNotFound {
		return ReasonUnknownCard, inst.CardID, nil
	}
	if err != nil {
		return "", "", fmt.Errorf("lookup card %s: %w", inst.CardID, err)
	}
	if p.Mana < card.ManaCost {
		return ReasonInsufficientMana, fmt.Sprintf("need %d, have %d", card.ManaCost, p.Mana), nil
	}

	var installPos *board.Position
	if card.Type == cards.TypeRitual && action.Target != nil {
		pos := board.FromViewerPos(s.cfg.BoardHeight, s.isBottom(playerID), *action.Target)
		installRange := 0
		if card.Config != nil && card.Config.Install != nil {
			installRange = card.Config.Install.Range
		}
		if !board.InBounds(s.cfg.BoardWidth, s.cfg.BoardHeight, pos) || s.cellOccupied(pos) {
			return ReasonBadTarget, pos.String(), nil
		}
		if installRange > 0 && board.Taxi(s.wizards[playerID], pos) > installRange {
			return ReasonBadTarget, pos.String(), nil
		}
		installPos = &pos
	}

	p.removeFromHand(inst.InstanceID)
	p.ResolveStack = append(p.ResolveStack, inst)

	s.stack.PushBatch([]rules.Effect{
		{Kind: rules.EffectManaPay, Player: playerID, Value: rules.LiteralAmount(card.ManaCost)},
		{Kind: rules.EffectCastExecute, Player: playerID, CardID: inst.CardID, Dest: installPos},
		{Kind: rules.EffectFlushResolve, Player: playerID},
	})
	return "", "", nil
}

// actionMove validates a one-step wizard move in the sender's viewer frame.
func (s *Session) actionMove(playerID string, action Action) (InvalidReason, string) {
	if action.Target == nil {
		return ReasonBadTarget, "missing target"
	}
	dest := board.FromViewerPos(s.cfg.BoardHeight, s.isBottom(playerID), *action.Target)
	from := s.wizards[playerID]
	if !board.InBounds(s.cfg.BoardWidth, s.cfg.BoardHeight, dest) {
		return ReasonBadTarget, dest.String()
	}
	if board.Taxi(from, dest) != 1 {
		return ReasonBadTarget, "not adjacent"
	}
	for _, pos := range s.wizards {
		if pos == dest {
			return ReasonBadTarget, "occupied"
		}
	}
	if rit := s.ritualAt(dest); rit != nil && rit.Owner == playerID {
		return ReasonBadTarget, "own ritual"
	}
	s.stack.Push(rules.Effect{Kind: rules.EffectMove, Player: playerID, Target: rules.TargetSelf, Dest: &dest})
	return "", ""
}

// actionUseRitual fires a ritual's onUsePerTurn trigger, once per turn.
func (s *Session) actionUseRitual(ctx context.Context, playerID string, action Action) (InvalidReason, string, error) {
	var rit *Ritual
	for _, r := range s.rituals {
		if r.ID == action.RitualID && r.Owner == playerID {
			rit = r
			break
		}
	}
	if rit == nil {
		return ReasonRitualNotFound, action.RitualID, nil
	}
	if rit.UsedThisTurn {
		return ReasonRitualUsed, rit.ID, nil
	}

	card, err := s.provider.Lookup(ctx, rit.CardID)
	if err == cards.ErrNotFound {
		return ReasonUnknownCard, rit.CardID, nil
	}
	if err != nil {
		return "", "", fmt.Errorf("lookup card %s: %w", rit.CardID, err)
	}

	rit.UsedThisTurn = true
	effs := cards.Compile(card.Config, rules.TriggerOnUsePerTurn, playerID, rit.CardID, cards.CompileOptions{SourceID: rit.ID})
	s.stack.PushBatch(effs)
	s.logLine(fmt.Sprintf("%s uses %s", playerID, card.Name))
	return "", "", nil
}

// SubmitInput answers the pending input and resumes resolution.
func (s *Session) SubmitInput(ctx context.Context, playerID string, answer InputAnswer) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Command{Kind: CommandInput, Player: playerID, Answer: &answer})
	if s.phase != PhaseWaitingForPlayerInput || s.pending == nil {
		return s.invalid(playerID, ReasonNoPendingInput, ""), nil
	}
	if s.pending.PlayerID != playerID {
		return s.invalid(playerID, ReasonNotYourInput, ""), nil
	}

	switch s.pending.Purpose {
	case purposeInstall:
		if answer.Position == nil {
			return s.invalid(playerID, ReasonBadAnswer, "missing position"), nil
		}
		pos := board.FromViewerPos(s.cfg.BoardHeight, s.isBottom(playerID), *answer.Position)
		legal := false
		for _, c := range s.pending.Positions {
			if c == pos {
				legal = true
				break
			}
		}
		if !legal {
			return s.invalid(playerID, ReasonBadAnswer, pos.String()), nil
		}
		pend := s.pending
		s.pending = nil
		s.stack.Push(rules.Effect{
			Kind:     rules.EffectInstallAfterSelection,
			Player:   pend.Actor,
			CardID:   pend.SourceCard,
			SourceID: pend.SourceID,
			Dest:     &pos,
		})

	case purposeDiscard:
		target := s.players[playerID]
		legal := false
		for _, opt := range s.pending.Options {
			if opt == answer.InstanceID {
				legal = true
				break
			}
		}
		if !legal {
			return s.invalid(playerID, ReasonBadAnswer, answer.InstanceID), nil
		}
		inst := target.removeFromHand(answer.InstanceID)
		target.Grave = append(target.Grave, inst)
		s.diff.anim(Animation{Kind: "discard", Player: playerID, CardID: inst.CardID})
		s.logLine(fmt.Sprintf("%s discards a card", playerID))
		s.pending.Remaining--
		if s.pending.Remaining > 0 && len(target.Hand) > 0 {
			s.pending.Options = instanceIDs(target.Hand)
			// Still suspended: re-ask with the refreshed hand.
			return s.buildResults(), nil
		}
		s.pending = nil

	default:
		return s.invalid(playerID, ReasonBadAnswer, "unanswerable input"), nil
	}

	s.phase = PhaseResolving
	if err := s.resolveUntilStable(ctx); err != nil {
		return nil, err
	}
	return s.buildResults(), nil
}

// resolveUntilStable pops and resolves effects one at a time, stopping early
// on game over or the moment a pending input appears. Remaining effects stay
// queued for after the answer.
func (s *Session) resolveUntilStable(ctx context.Context) error {
	for {
		if s.phase == PhaseGameOver {
			return nil
		}
		eff, ok := s.stack.Pop()
		if !ok {
			if s.pending == nil {
				s.phase = PhaseWaitingForPlayerAction
			}
			return nil
		}
		if err := s.resolveOne(ctx, eff); err != nil {
			return err
		}
		// Game-over runs after every single resolution: effects queued
		// after a lethal effect never run.
		if s.checkGameOver() {
			s.stack.Clear()
			return nil
		}
		if s.pending != nil {
			s.phase = PhaseWaitingForPlayerInput
			return nil
		}
	}
}

// checkGameOver transitions to GAME_OVER when at most one player has hp > 0.
func (s *Session) checkGameOver() bool {
	if s.phase == PhaseGameOver {
		return true
	}
	var alive []string
	for _, pid := range s.seats {
		if s.players[pid].alive() {
			alive = append(alive, pid)
		}
	}
	if len(alive) > 1 {
		return false
	}
	s.phase = PhaseGameOver
	if len(alive) == 1 {
		s.winner = alive[0]
	} else {
		s.winner = WinnerDraw
	}
	s.logLine(fmt.Sprintf("game over: %s", s.winner))
	s.logger.Info("game over", zap.String("winner", s.winner), zap.Int("turn", s.turn))
	return true
}

// destroyRitual removes a ritual from play: off the board, its instance onto
// the owner's resolve stack, its onDestroy effects queued (self/enemy
// inverted when the destroyer is the opponent), and a final flush that sends
// the instance to the owner's grave.
func (s *Session) destroyRitual(ctx context.Context, rit *Ritual, destroyer string) error {
	for i, r := range s.rituals {
		if r.ID == rit.ID {
			s.rituals = append(s.rituals[:i], s.rituals[i+1:]...)
			break
		}
	}
	s.observers.UnregisterBySource(rit.ID)

	owner := s.players[rit.Owner]
	owner.ResolveStack = append(owner.ResolveStack, rit.Instance)

	var effs []rules.Effect
	card, err := s.provider.Lookup(ctx, rit.CardID)
	switch {
	case err == cards.ErrNotFound:
		s.logger.Warn("destroyed ritual has unknown card", zap.String("card_id", rit.CardID))
	case err != nil:
		return fmt.Errorf("lookup card %s: %w", rit.CardID, err)
	default:
		opts := cards.CompileOptions{SourceID: rit.ID}
		actor := rit.Owner
		if destroyer != rit.Owner {
			opts.InvertSelfEnemy = true
			actor = destroyer
		}
		effs = cards.Compile(card.Config, rules.TriggerOnDestroy, actor, rit.CardID, opts)
	}
	effs = append(effs, rules.Effect{Kind: rules.EffectFlushResolve, Player: rit.Owner})
	s.stack.PushBatch(effs)

	s.diff.anim(Animation{Kind: "ritual_destroyed", Player: rit.Owner, CardID: rit.CardID, From: &rit.Pos})
	s.logLine(fmt.Sprintf("%s's ritual is destroyed", rit.Owner))
	return nil
}

// expandTriggered turns triggered-effect wrappers from the observer registry
// into concrete effects via the card effect interpreter.
func (s *Session) expandTriggered(ctx context.Context, wrappers []rules.Effect) ([]rules.Effect, error) {
	var out []rules.Effect
	for _, w := range wrappers {
		card, err := s.provider.Lookup(ctx, w.CardID)
		if err == cards.ErrNotFound {
			s.logger.Warn("triggered card not found", zap.String("card_id", w.CardID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup card %s: %w", w.CardID, err)
		}
		out = append(out, cards.Compile(card.Config, w.Trigger, w.Player, w.CardID, cards.CompileOptions{SourceID: w.SourceID})...)
	}
	return out, nil
}

// --- small state helpers ---

func (s *Session) isBottom(playerID string) bool {
	return len(s.seats) > 0 && s.seats[0] == playerID
}

func (s *Session) nextSeat(playerID string) string {
	for i, pid := range s.seats {
		if pid == playerID {
			return s.seats[(i+1)%len(s.seats)]
		}
	}
	return s.seats[0]
}

func (s *Session) opponentOf(playerID string) *playerState {
	return s.players[s.nextSeat(playerID)]
}

func (s *Session) ritualAt(pos board.Position) *Ritual {
	for _, r := range s.rituals {
		if r.Pos == pos {
			return r
		}
	}
	return nil
}

// cellOccupied reports whether any wizard or ritual sits on pos.
func (s *Session) cellOccupied(pos board.Position) bool {
	for _, wp := range s.wizards {
		if wp == pos {
			return true
		}
	}
	return s.ritualAt(pos) != nil
}

func (s *Session) ritualCount(playerID string) int {
	n := 0
	for _, r := range s.rituals {
		if r.Owner == playerID {
			n++
		}
	}
	return n
}

// logLine appends to both the incremental diff and the bounded trailing
// window of turn events.
func (s *Session) logLine(line string) {
	s.diff.log(line)
	s.logs = append(s.logs, line)
	if max := s.cfg.LogWindow; max > 0 && len(s.logs) > max {
		s.logs = s.logs[len(s.logs)-max:]
	}
}

// --- result construction ---

func (s *Session) invalid(playerID string, reason InvalidReason, detail string) []Result {
	return []Result{{
		Kind:     ResultInvalidAction,
		PlayerID: playerID,
		Invalid:  &InvalidInfo{Reason: reason, Detail: detail},
	}}
}

// patchResults emits one fogged state patch per seated player, draining the
// accumulated diff.
func (s *Session) patchResults() []Result {
	diff := s.diff
	s.diff = diffBuffer{}
	results := make([]Result, 0, len(s.seats))
	for _, pid := range s.seats {
		results = append(results, Result{
			Kind:     ResultStatePatch,
			PlayerID: pid,
			Patch:    s.buildPatch(pid, diff),
		})
	}
	return results
}

// buildResults emits the post-resolution message set: one patch per player,
// a request-input to exactly the player who owes an answer, and the
// game-over notice once.
func (s *Session) buildResults() []Result {
	results := s.patchResults()

	if s.pending != nil {
		results = append(results, Result{
			Kind:     ResultRequestInput,
			PlayerID: s.pending.PlayerID,
			Input:    s.buildInputRequest(),
		})
	}

	if s.phase == PhaseGameOver && !s.gameOverSent {
		s.gameOverSent = true
		info := &GameOverInfo{Winner: s.winner, Reason: "hp_depleted"}
		if s.winner == WinnerDraw {
			info.Reason = "mutual_defeat"
		}
		for _, pid := range s.seats {
			results = append(results, Result{Kind: ResultGameOver, PlayerID: pid, GameOver: info})
		}
	}

	return results
}

func (s *Session) buildInputRequest() *InputRequest {
	pend := s.pending
	req := &InputRequest{
		Kind:       pend.Kind,
		SourceCard: pend.SourceCard,
		Remaining:  pend.Remaining,
		Range:      pend.Range,
		Options:    append([]string(nil), pend.Options...),
	}
	bottom := s.isBottom(pend.PlayerID)
	for _, pos := range pend.Positions {
		req.Positions = append(req.Positions, board.ToViewerPos(s.cfg.BoardHeight, bottom, pos))
	}
	return req
}

func instanceValues(list []*CardInstance) []CardInstance {
	out := make([]CardInstance, len(list))
	for i, inst := range list {
		out[i] = *inst
	}
	return out
}

func instanceIDs(list []*CardInstance) []string {
	out := make([]string, len(list))
	for i, inst := range list {
		out[i] = inst.InstanceID
	}
	return out
}
