package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/cards"
	"github.com/gridspell/gridspell-server/internal/game/board"
	"github.com/gridspell/gridspell-server/internal/game/rules"
)

// resolveOne mutates authoritative state for a single popped effect and
// appends log/animation entries to the diff buffer. Effects whose
// preconditions fail at resolution time are dropped silently: queued effects
// are best-effort.
func (s *Session) resolveOne(ctx context.Context, eff rules.Effect) error {
	if !s.conditionHolds(eff) {
		return nil
	}

	switch eff.Kind {
	case rules.EffectManaPay:
		s.resolveManaPay(eff)
	case rules.EffectManaGain:
		s.resolveManaGain(eff)
	case rules.EffectDamage:
		s.resolveDamage(eff)
	case rules.EffectHeal:
		s.resolveHeal(eff)
	case rules.EffectMove:
		return s.resolveMove(ctx, eff)
	case rules.EffectDraw:
		return s.resolveDraw(ctx, eff)
	case rules.EffectDrawCata:
		return s.resolveDrawCata(ctx, eff)
	case rules.EffectDiscard:
		s.resolveDiscard(eff)
	case rules.EffectBurn:
		s.resolveBurn(eff)
	case rules.EffectInstall, rules.EffectInstallAfterSelection:
		return s.resolveInstall(ctx, eff)
	case rules.EffectCastExecute:
		return s.resolveCastExecute(ctx, eff)
	case rules.EffectTurnStart:
		return s.resolveTurnStart(ctx, eff)
	case rules.EffectTurnEnd:
		return s.resolveTurnEnd(ctx, eff)
	case rules.EffectChangeTurn:
		s.resolveChangeTurn(eff)
	case rules.EffectTriggered:
		// Extension point: a wrapper that reached the stack unexpanded is
		// expanded here through the interpreter.
		expanded, err := s.expandTriggered(ctx, []rules.Effect{eff})
		if err != nil {
			return err
		}
		s.stack.PushBatch(expanded)
	case rules.EffectFlushResolve:
		s.flushResolveStack(eff.Player)
	default:
		s.logger.Warn("unknown effect kind", zap.String("kind", string(eff.Kind)))
	}
	return nil
}

// conditionHolds evaluates an effect's condition tag against live state, so
// earlier effects in the same trigger can change whether later ones fire.
func (s *Session) conditionHolds(eff rules.Effect) bool {
	p := s.players[eff.Player]
	if p == nil {
		return false
	}
	switch eff.Condition {
	case rules.CondNone:
		return true
	case rules.CondSelfDeckEmpty:
		return len(p.Deck) == 0
	case rules.CondSelfDeckEmptyNot:
		return len(p.Deck) > 0
	case rules.CondSelfHandEmpty:
		return len(p.Hand) == 0
	case rules.CondSelfHandEmptyNot:
		return len(p.Hand) > 0
	case rules.CondEnemyDeadNot:
		return s.opponentOf(eff.Player).alive()
	case rules.CondCataDeckEmptyNot:
		return len(s.cataDeck) > 0
	}
	return true
}

// amountOf resolves the numeric value of an effect at execution time.
// Unrecognized symbolic values resolve to 0.
func (s *Session) amountOf(eff rules.Effect) int {
	if eff.Value.Symbol == "" {
		return eff.Value.Literal
	}
	switch eff.Value.Symbol {
	case "count(rituals_installed)":
		return s.ritualCount(eff.Player)
	default:
		s.logger.Warn("unknown symbolic value", zap.String("symbol", eff.Value.Symbol))
		return 0
	}
}

// targetPlayer resolves self/enemy/near-enemy targeting relative to the
// effect's owner. The second return value is false when a near-enemy target
// is out of range and the effect should fizzle silently.
func (s *Session) targetPlayer(eff rules.Effect) (*playerState, bool) {
	switch eff.Target {
	case rules.TargetEnemy:
		return s.opponentOf(eff.Player), true
	case rules.TargetNearEnemy:
		opp := s.opponentOf(eff.Player)
		if !board.WithinRange(s.wizards[eff.Player], s.wizards[opp.ID], eff.Range) {
			return nil, false
		}
		return opp, true
	default:
		return s.players[eff.Player], true
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Session) resolveManaPay(eff rules.Effect) {
	p := s.players[eff.Player]
	p.Mana = clamp(p.Mana-s.amountOf(eff), 0, p.MaxMana)
}

func (s *Session) resolveManaGain(eff rules.Effect) {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return
	}
	v := s.amountOf(eff)
	p.Mana = clamp(p.Mana+v, 0, p.MaxMana)
	s.diff.anim(Animation{Kind: "mana_gain", Player: p.ID, Value: v})
}

func (s *Session) resolveDamage(eff rules.Effect) {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return
	}
	v := s.amountOf(eff)
	p.HP -= v
	s.diff.anim(Animation{Kind: "damage", Player: p.ID, CardID: eff.CardID, Value: v})
	s.logLine(fmt.Sprintf("%s takes %d damage", p.ID, v))
}

func (s *Session) resolveHeal(eff rules.Effect) {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return
	}
	v := s.amountOf(eff)
	p.HP = clamp(p.HP+v, p.HP, p.MaxHP)
	s.diff.anim(Animation{Kind: "heal", Player: p.ID, CardID: eff.CardID, Value: v})
	s.logLine(fmt.Sprintf("%s heals %d", p.ID, v))
}

// resolveMove moves a wizard either to an absolute destination
// (player-initiated) or one step in a direction (card-initiated). Moves off
// the board or into an occupied cell are dropped silently rather than
// failing the chain. Arriving on an enemy ritual destroys it.
func (s *Session) resolveMove(ctx context.Context, eff rules.Effect) error {
	mover, ok := s.targetPlayer(eff)
	if !ok {
		return nil
	}
	from := s.wizards[mover.ID]

	var dest board.Position
	if eff.Dest != nil {
		dest = *eff.Dest
	} else {
		dest = board.Step(from, eff.Direction, s.isBottom(mover.ID))
	}

	if !board.InBounds(s.cfg.BoardWidth, s.cfg.BoardHeight, dest) {
		return nil
	}
	for pid, pos := range s.wizards {
		if pid != mover.ID && pos == dest {
			return nil
		}
	}
	rit := s.ritualAt(dest)
	if rit != nil && rit.Owner == mover.ID {
		return nil
	}

	s.wizards[mover.ID] = dest
	s.diff.anim(Animation{Kind: "move", Player: mover.ID, From: &from, To: &dest})

	if rit != nil {
		if err := s.destroyRitual(ctx, rit, mover.ID); err != nil {
			return err
		}
	}
	return nil
}

// drawOne performs one untriggered draw for p. An exhausted main deck falls
// through to the shared catastrophe deck; a draw beyond the hand limit burns
// the drawn card.
func (s *Session) drawOne(ctx context.Context, p *playerState) error {
	if len(p.Deck) == 0 {
		return s.cataDrawTriggered(ctx, p)
	}
	inst := p.Deck[0]
	p.Deck = p.Deck[1:]
	if len(p.Hand) >= p.HandLimit {
		p.Burned = append(p.Burned, inst)
		s.diff.anim(Animation{Kind: "hand_overflow_burn", Player: p.ID, CardID: inst.CardID})
		s.logLine(fmt.Sprintf("%s's hand is full; the drawn card is burned", p.ID))
		return nil
	}
	p.Hand = append(p.Hand, inst)
	s.diff.anim(Animation{Kind: "draw", Player: p.ID})
	return nil
}

// cataDrawOne is the draw-from-catastrophe-deck primitive: it reshuffles the
// catastrophe graveyard into the deck when empty, then moves the drawn card
// straight to the catastrophe graveyard. It does not fire onDrawn; that is
// the caller's job.
func (s *Session) cataDrawOne(p *playerState) *CardInstance {
	if len(s.cataDeck) == 0 && len(s.cataGrave) > 0 {
		s.cataDeck = s.cataGrave
		s.cataGrave = nil
		board.Shuffle(s.rng, s.cataDeck)
		s.logLine("the catastrophe deck is reshuffled")
	}
	if len(s.cataDeck) == 0 {
		return nil
	}
	inst := s.cataDeck[0]
	s.cataDeck = s.cataDeck[1:]
	s.cataGrave = append(s.cataGrave, inst)
	s.diff.anim(Animation{Kind: "catastrophe", Player: p.ID, CardID: inst.CardID})
	return inst
}

// cataDrawTriggered draws one catastrophe card and queues its onDrawn
// effects for the drawing player.
func (s *Session) cataDrawTriggered(ctx context.Context, p *playerState) error {
	inst := s.cataDrawOne(p)
	if inst == nil {
		return nil
	}
	card, err := s.provider.Lookup(ctx, inst.CardID)
	if err == cards.ErrNotFound {
		s.logger.Warn("catastrophe card not found", zap.String("card_id", inst.CardID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup card %s: %w", inst.CardID, err)
	}
	s.logLine(fmt.Sprintf("%s draws catastrophe: %s", p.ID, card.Name))
	s.stack.PushBatch(cards.Compile(card.Config, rules.TriggerOnDrawn, p.ID, inst.CardID, cards.CompileOptions{}))
	return nil
}

func (s *Session) resolveDraw(ctx context.Context, eff rules.Effect) error {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return nil
	}
	for i := 0; i < s.amountOf(eff); i++ {
		if err := s.drawOne(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) resolveDrawCata(ctx context.Context, eff rules.Effect) error {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return nil
	}
	for i := 0; i < s.amountOf(eff); i++ {
		if err := s.cataDrawTriggered(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) resolveDiscard(eff rules.Effect) {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return
	}
	v := s.amountOf(eff)

	switch eff.Method {
	case rules.MethodDeckRandom:
		for i := 0; i < v && len(p.Deck) > 0; i++ {
			idx := s.rng.Intn(len(p.Deck))
			inst := p.Deck[idx]
			p.Deck = append(p.Deck[:idx], p.Deck[idx+1:]...)
			p.Grave = append(p.Grave, inst)
		}
		s.logLine(fmt.Sprintf("%s discards %d from deck", p.ID, v))
	case rules.MethodDeckTop:
		for i := 0; i < v && len(p.Deck) > 0; i++ {
			inst := p.Deck[0]
			p.Deck = p.Deck[1:]
			p.Grave = append(p.Grave, inst)
		}
		s.logLine(fmt.Sprintf("%s mills %d", p.ID, v))
	case rules.MethodHandRandom:
		for i := 0; i < v && len(p.Hand) > 0; i++ {
			idx := s.rng.Intn(len(p.Hand))
			inst := p.Hand[idx]
			p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
			p.Grave = append(p.Grave, inst)
		}
		s.logLine(fmt.Sprintf("%s discards %d at random", p.ID, v))
	case rules.MethodHandChoose:
		if len(p.Hand) == 0 {
			return
		}
		if v > len(p.Hand) {
			v = len(p.Hand)
		}
		// Suspend resolution until the target player has chosen.
		s.pending = &pendingInput{
			PlayerID:   p.ID,
			Kind:       InputOptionSelection,
			Purpose:    purposeDiscard,
			SourceCard: eff.CardID,
			Options:    instanceIDs(p.Hand),
			Remaining:  v,
			Actor:      eff.Player,
		}
	default:
		s.logger.Warn("discard without method", zap.String("player", eff.Player))
	}
}

// resolveBurn removes cards from the game entirely, with no grave transit.
// With no method it marks the currently resolving card, keyed by instance
// id, so the post-resolution flush sends it to the burn pile instead of the
// grave.
func (s *Session) resolveBurn(eff rules.Effect) {
	p, ok := s.targetPlayer(eff)
	if !ok {
		return
	}

	switch eff.Method {
	case rules.MethodDeckRandom:
		v := s.amountOf(eff)
		for i := 0; i < v && len(p.Deck) > 0; i++ {
			idx := s.rng.Intn(len(p.Deck))
			inst := p.Deck[idx]
			p.Deck = append(p.Deck[:idx], p.Deck[idx+1:]...)
			p.Burned = append(p.Burned, inst)
		}
		s.logLine(fmt.Sprintf("%d of %s's cards burn away", v, p.ID))
	case rules.MethodDeckTop:
		v := s.amountOf(eff)
		for i := 0; i < v && len(p.Deck) > 0; i++ {
			inst := p.Deck[0]
			p.Deck = p.Deck[1:]
			p.Burned = append(p.Burned, inst)
		}
		s.logLine(fmt.Sprintf("%d of %s's cards burn away", v, p.ID))
	case "":
		actor := s.players[eff.Player]
		if n := len(actor.ResolveStack); n > 0 {
			s.burned[actor.ResolveStack[n-1].InstanceID] = true
		}
	default:
		s.logger.Warn("burn with unsupported method", zap.String("method", string(eff.Method)))
	}
}

// resolveInstall places a ritual. With a pre-bound destination it installs
// immediately; otherwise it enumerates legal cells and suspends for a map
// selection. No legal cell means the cast fizzles and the card instance
// flushes to the grave as usual.
func (s *Session) resolveInstall(ctx context.Context, eff rules.Effect) error {
	actor := s.players[eff.Player]
	if len(actor.ResolveStack) == 0 {
		s.logger.Warn("install with empty resolve stack", zap.String("player", eff.Player))
		return nil
	}

	if eff.Dest == nil {
		legal := board.LegalInstallPositions(
			s.cfg.BoardWidth, s.cfg.BoardHeight,
			s.wizards[eff.Player], eff.Range,
			s.cellOccupied,
		)
		if len(legal) == 0 {
			s.logLine(fmt.Sprintf("%s has nowhere to install", eff.Player))
			return nil
		}
		s.pending = &pendingInput{
			PlayerID:   eff.Player,
			Kind:       InputMapSelection,
			Purpose:    purposeInstall,
			SourceCard: eff.CardID,
			SourceID:   eff.SourceID,
			Positions:  legal,
			Range:      eff.Range,
			Actor:      eff.Player,
		}
		return nil
	}

	dest := *eff.Dest
	if !board.InBounds(s.cfg.BoardWidth, s.cfg.BoardHeight, dest) || s.cellOccupied(dest) {
		return nil
	}

	inst := actor.ResolveStack[len(actor.ResolveStack)-1]
	actor.ResolveStack = actor.ResolveStack[:len(actor.ResolveStack)-1]

	rit := &Ritual{
		ID:       s.nextID("ritual"),
		CardID:   eff.CardID,
		Owner:    eff.Player,
		Pos:      dest,
		Instance: inst,
	}
	s.rituals = append(s.rituals, rit)

	if err := s.registerRitualObservers(ctx, rit); err != nil {
		return err
	}

	s.diff.anim(Animation{Kind: "install", Player: eff.Player, CardID: eff.CardID, To: &dest})
	s.logLine(fmt.Sprintf("%s installs a ritual", eff.Player))
	return nil
}

// registerRitualObservers installs the ritual's recurring and destroy
// triggers in the observer registry, driven by the card's configuration.
func (s *Session) registerRitualObservers(ctx context.Context, rit *Ritual) error {
	card, err := s.provider.Lookup(ctx, rit.CardID)
	if err == cards.ErrNotFound {
		s.logger.Warn("installed ritual has unknown card", zap.String("card_id", rit.CardID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup card %s: %w", rit.CardID, err)
	}
	if card.Config == nil {
		return nil
	}

	owner := rit.Owner
	for _, tc := range card.Config.Triggers {
		reg := rules.Registration{
			Owner:    owner,
			CardID:   rit.CardID,
			SourceID: rit.ID,
			Trigger:  tc.Trigger,
		}
		switch tc.Trigger {
		case rules.TriggerOnTurnStart, rules.TriggerOnTurnEnd:
			reg.Condition = func(fire map[string]string) bool {
				return fire["player"] == owner
			}
		case rules.TriggerOnDestroy:
			// destroyRitual compiles onDestroy directly rather than firing it
			// through the registry; this entry makes the trigger visible and
			// tears down with the ritual's other registrations.
		default:
			continue // onCast/onUsePerTurn/onDrawn are driven directly
		}
		s.observers.Register(reg)
	}
	return nil
}

// resolveCastExecute fires a card's onCast trigger for the given actor.
func (s *Session) resolveCastExecute(ctx context.Context, eff rules.Effect) error {
	card, err := s.provider.Lookup(ctx, eff.CardID)
	if err == cards.ErrNotFound {
		s.logger.Warn("cast card not found", zap.String("card_id", eff.CardID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup card %s: %w", eff.CardID, err)
	}

	s.diff.anim(Animation{Kind: "cast", Player: eff.Player, CardID: eff.CardID})
	s.logLine(fmt.Sprintf("%s casts %s", eff.Player, card.Name))
	s.stack.PushBatch(cards.Compile(card.Config, rules.TriggerOnCast, eff.Player, eff.CardID, cards.CompileOptions{InstallPos: eff.Dest}))
	return nil
}

// resolveTurnStart raises the starting player's mana ceiling, queues a
// refill, performs the turn draw, then fires onTurnStart observers.
func (s *Session) resolveTurnStart(ctx context.Context, eff rules.Effect) error {
	p := s.players[eff.Player]
	p.MaxMana = clamp(p.MaxMana+s.cfg.ManaPerTurn, 0, s.cfg.ManaCap)

	for _, r := range s.rituals {
		if r.Owner == p.ID {
			r.UsedThisTurn = false
		}
	}

	batch := []rules.Effect{{
		Kind:   rules.EffectManaGain,
		Player: p.ID,
		Target: rules.TargetSelf,
		Value:  rules.LiteralAmount(p.MaxMana - p.Mana),
	}}

	// The turn draw runs before the batch below is pushed, so a drawn
	// catastrophe's onDrawn effects sit under it on the stack and resolve
	// after the refill and the onTurnStart triggers: the player's turn is
	// fully set up before catastrophe fallout lands.
	if err := s.drawOne(ctx, p); err != nil {
		return err
	}

	wrappers := s.observers.Collect(rules.TriggerOnTurnStart, map[string]string{"player": p.ID})
	expanded, err := s.expandTriggered(ctx, wrappers)
	if err != nil {
		return err
	}
	batch = append(batch, expanded...)
	s.stack.PushBatch(batch)

	s.logLine(fmt.Sprintf("turn %d: %s", s.turn, p.ID))
	return nil
}

// resolveTurnEnd fires onTurnEnd for every ritual owned by the ending
// player, then hands the turn to the next player in seating order. The turn
// transition is itself a short effect chain, not one atomic jump.
func (s *Session) resolveTurnEnd(ctx context.Context, eff rules.Effect) error {
	wrappers := s.observers.Collect(rules.TriggerOnTurnEnd, map[string]string{"player": eff.Player})
	batch, err := s.expandTriggered(ctx, wrappers)
	if err != nil {
		return err
	}
	batch = append(batch, rules.Effect{
		Kind:   rules.EffectChangeTurn,
		Player: s.nextSeat(eff.Player),
	})
	s.stack.PushBatch(batch)
	return nil
}

func (s *Session) resolveChangeTurn(eff rules.Effect) {
	s.turn++
	s.activePlayer = eff.Player
	s.phase = PhaseResolving
	s.stack.Push(rules.Effect{Kind: rules.EffectTurnStart, Player: eff.Player})
}

// flushResolveStack assigns every held card instance its final destination:
// the burn pile for instances marked by a methodless burn, the owner's
// grave for everything else. Installed instances were already removed.
func (s *Session) flushResolveStack(playerID string) {
	p := s.players[playerID]
	for _, inst := range p.ResolveStack {
		if s.burned[inst.InstanceID] {
			delete(s.burned, inst.InstanceID)
			p.Burned = append(p.Burned, inst)
			s.logLine(fmt.Sprintf("%s's card burns up", playerID))
			continue
		}
		p.Grave = append(p.Grave, inst)
	}
	p.ResolveStack = nil
}
