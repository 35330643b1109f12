package cards

import (
	"github.com/gridspell/gridspell-server/internal/game/board"
	"github.com/gridspell/gridspell-server/internal/game/rules"
)

// CompileOptions adjust how a trigger's descriptors become stack effects.
type CompileOptions struct {
	// InvertSelfEnemy flips self/enemy targeting. Required when a ritual is
	// destroyed by its opponent and its onDestroy effects are interpreted
	// from the destroyer's perspective. The parsed config itself is never
	// mutated, so it stays shareable across matches.
	InvertSelfEnemy bool

	// InstallPos, when set, pre-binds the position for the install effect a
	// ritual cast synthesizes. Left nil, the install asks the player.
	InstallPos *board.Position

	// SourceID tags compiled effects with the installed object they came
	// from, if any.
	SourceID string
}

// Compile looks up the matching trigger's effect list in cfg and turns each
// descriptor into a concrete effect bound to the actor. For a ritual's
// onCast trigger it additionally synthesizes an install effect carrying the
// config's install range, because installation is not itself listed as a
// descriptor.
func Compile(cfg *EffectConfig, trigger rules.TriggerKind, actor, cardID string, opts CompileOptions) []rules.Effect {
	if cfg == nil {
		return nil
	}

	var out []rules.Effect
	for _, desc := range cfg.EffectsFor(trigger) {
		out = append(out, compileDescriptor(desc, actor, cardID, opts))
	}

	if cfg.Type == TypeRitual && trigger == rules.TriggerOnCast {
		installRange := 0
		if cfg.Install != nil {
			installRange = cfg.Install.Range
		}
		out = append(out, rules.Effect{
			Kind:     rules.EffectInstall,
			Player:   actor,
			CardID:   cardID,
			SourceID: opts.SourceID,
			Range:    installRange,
			Dest:     opts.InstallPos,
		})
	}

	return out
}

func compileDescriptor(desc EffectDescriptor, actor, cardID string, opts CompileOptions) rules.Effect {
	target := desc.Target
	if opts.InvertSelfEnemy {
		target = target.Invert()
	}
	return rules.Effect{
		Kind:      descriptorKinds[desc.Kind],
		Player:    actor,
		CardID:    cardID,
		SourceID:  opts.SourceID,
		Value:     desc.Value,
		Target:    target,
		Range:     desc.Range,
		Condition: desc.Condition,
		Method:    desc.Method,
		Direction: desc.Direction,
	}
}
