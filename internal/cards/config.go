package cards

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/gridspell/gridspell-server/internal/game/board"
	"github.com/gridspell/gridspell-server/internal/game/rules"
)

// EffectConfig is the parsed form of a card's static effect configuration:
// per-trigger ordered effect descriptor lists, plus install metadata for
// rituals.
type EffectConfig struct {
	Type     Type
	Triggers []TriggerConfig
	Install  *InstallConfig
}

// TriggerConfig binds one trigger kind to its ordered effect descriptors.
type TriggerConfig struct {
	Trigger rules.TriggerKind
	Effects []EffectDescriptor
}

// InstallConfig carries ritual placement constraints.
type InstallConfig struct {
	Range int
}

// EffectDescriptor is one entry in a trigger's effect list.
type EffectDescriptor struct {
	Kind      string
	Value     rules.Amount
	Target    rules.Target
	Range     int
	Condition rules.Condition
	Method    rules.Method
	Direction board.Direction
}

// EffectsFor returns the descriptor list for the given trigger, or nil when
// the config has no matching trigger.
func (c *EffectConfig) EffectsFor(trigger rules.TriggerKind) []EffectDescriptor {
	for _, tc := range c.Triggers {
		if tc.Trigger == trigger {
			return tc.Effects
		}
	}
	return nil
}

// Recognized effect descriptor kinds and their stack effect kinds.
var descriptorKinds = map[string]rules.EffectKind{
	"mana_gain": rules.EffectManaGain,
	"damage":    rules.EffectDamage,
	"heal":      rules.EffectHeal,
	"move":      rules.EffectMove,
	"draw":      rules.EffectDraw,
	"draw_cata": rules.EffectDrawCata,
	"discard":   rules.EffectDiscard,
	"burn":      rules.EffectBurn,
	"install":   rules.EffectInstall,
}

// raw decode targets for mapstructure.

type rawConfig struct {
	Type     string       `mapstructure:"type"`
	Triggers []rawTrigger `mapstructure:"triggers"`
	Install  *rawInstall  `mapstructure:"install"`
}

type rawTrigger struct {
	Trigger string      `mapstructure:"trigger"`
	Effects []rawEffect `mapstructure:"effects"`
}

type rawInstall struct {
	Range int `mapstructure:"range"`
}

type rawEffect struct {
	Kind      string       `mapstructure:"kind"`
	Value     rules.Amount `mapstructure:"value"`
	Target    string       `mapstructure:"target"`
	Range     int          `mapstructure:"range"`
	Condition string       `mapstructure:"condition"`
	Method    string       `mapstructure:"method"`
	Direction string       `mapstructure:"direction"`
}

// amountHook decodes an effect value that may arrive as a number or as a
// symbolic string such as "count(rituals_installed)".
func amountHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(rules.Amount{}) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return rules.Amount{Literal: v}, nil
	case int64:
		return rules.Amount{Literal: int(v)}, nil
	case float64:
		return rules.Amount{Literal: int(v)}, nil
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return rules.Amount{Literal: n}, nil
		}
		return rules.Amount{Symbol: v}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", data)
	}
}

// ParseConfig validates a raw effect configuration and returns its parsed
// form. Shape errors reject the whole config; unknown trigger and effect
// kinds are dropped rather than fatal so old servers tolerate newer cards.
func ParseConfig(raw map[string]interface{}) (*EffectConfig, error) {
	var rc rawConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rc,
		DecodeHook:       amountHook,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("malformed effect config: %w", err)
	}

	cardType := Type(rc.Type)
	switch cardType {
	case TypeInstant, TypeRitual, TypeCatastrophe:
	default:
		return nil, fmt.Errorf("unknown card type %q", rc.Type)
	}

	cfg := &EffectConfig{Type: cardType}
	if rc.Install != nil {
		if rc.Install.Range < 0 {
			return nil, fmt.Errorf("negative install range %d", rc.Install.Range)
		}
		cfg.Install = &InstallConfig{Range: rc.Install.Range}
	}

	for _, rt := range rc.Triggers {
		trigger := rules.TriggerKind(rt.Trigger)
		if !rules.KnownTrigger(trigger) {
			continue // forward compatibility: drop, don't fail
		}
		tc := TriggerConfig{Trigger: trigger}
		for _, re := range rt.Effects {
			if _, ok := descriptorKinds[re.Kind]; !ok {
				continue
			}
			desc, err := parseDescriptor(re)
			if err != nil {
				return nil, fmt.Errorf("trigger %s: %w", trigger, err)
			}
			tc.Effects = append(tc.Effects, desc)
		}
		cfg.Triggers = append(cfg.Triggers, tc)
	}

	return cfg, nil
}

func parseDescriptor(re rawEffect) (EffectDescriptor, error) {
	desc := EffectDescriptor{
		Kind:  re.Kind,
		Value: re.Value,
		Range: re.Range,
	}

	switch target := rules.Target(re.Target); target {
	case "", rules.TargetSelf, rules.TargetEnemy, rules.TargetNearEnemy:
		desc.Target = target
	default:
		return desc, fmt.Errorf("effect %s: unknown target %q", re.Kind, re.Target)
	}

	switch cond := rules.Condition(re.Condition); cond {
	case rules.CondNone, rules.CondSelfDeckEmpty, rules.CondSelfDeckEmptyNot,
		rules.CondSelfHandEmpty, rules.CondSelfHandEmptyNot,
		rules.CondEnemyDeadNot, rules.CondCataDeckEmptyNot:
		desc.Condition = cond
	default:
		return desc, fmt.Errorf("effect %s: unknown condition %q", re.Kind, re.Condition)
	}

	switch method := rules.Method(re.Method); method {
	case "", rules.MethodDeckRandom, rules.MethodDeckTop,
		rules.MethodHandChoose, rules.MethodHandRandom:
		desc.Method = method
	default:
		return desc, fmt.Errorf("effect %s: unknown method %q", re.Kind, re.Method)
	}

	switch dir := board.Direction(re.Direction); dir {
	case "", board.DirForward, board.DirBackward, board.DirLeft, board.DirRight:
		desc.Direction = dir
	default:
		return desc, fmt.Errorf("effect %s: unknown direction %q", re.Kind, re.Direction)
	}

	if re.Range < 0 {
		return desc, fmt.Errorf("effect %s: negative range %d", re.Kind, re.Range)
	}

	return desc, nil
}
