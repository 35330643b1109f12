package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridspell/gridspell-server/internal/game/rules"
)

func TestParseConfigBasic(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"type": "instant",
		"triggers": []interface{}{
			map[string]interface{}{
				"trigger": "onCast",
				"effects": []interface{}{
					map[string]interface{}{"kind": "damage", "value": 2, "target": "enemy"},
					map[string]interface{}{"kind": "heal", "value": 1, "target": "self"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, TypeInstant, cfg.Type)

	effects := cfg.EffectsFor(rules.TriggerOnCast)
	require.Len(t, effects, 2)
	assert.Equal(t, "damage", effects[0].Kind)
	assert.Equal(t, 2, effects[0].Value.Literal)
	assert.Equal(t, rules.TargetEnemy, effects[0].Target)
	assert.Equal(t, "heal", effects[1].Kind)
}

func TestParseConfigSymbolicValue(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"type": "instant",
		"triggers": []interface{}{
			map[string]interface{}{
				"trigger": "onCast",
				"effects": []interface{}{
					map[string]interface{}{"kind": "mana_gain", "value": "count(rituals_installed)", "target": "self"},
				},
			},
		},
	})
	require.NoError(t, err)
	effects := cfg.EffectsFor(rules.TriggerOnCast)
	require.Len(t, effects, 1)
	assert.Equal(t, "count(rituals_installed)", effects[0].Value.Symbol)
	assert.Zero(t, effects[0].Value.Literal)
}

func TestParseConfigDropsUnknownKinds(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"type": "instant",
		"triggers": []interface{}{
			map[string]interface{}{
				"trigger": "onSomethingNew",
				"effects": []interface{}{
					map[string]interface{}{"kind": "damage", "value": 1},
				},
			},
			map[string]interface{}{
				"trigger": "onCast",
				"effects": []interface{}{
					map[string]interface{}{"kind": "polymorph", "value": 1},
					map[string]interface{}{"kind": "damage", "value": 1, "target": "enemy"},
				},
			},
		},
	})
	require.NoError(t, err)
	// The unrecognized trigger and effect kind vanish, the rest survives.
	assert.Nil(t, cfg.EffectsFor("onSomethingNew"))
	assert.Len(t, cfg.EffectsFor(rules.TriggerOnCast), 1)
}

func TestParseConfigRejectsBadShape(t *testing.T) {
	cases := []map[string]interface{}{
		{"type": "sorcery"},
		{
			"type": "instant",
			"triggers": []interface{}{
				map[string]interface{}{
					"trigger": "onCast",
					"effects": []interface{}{
						map[string]interface{}{"kind": "damage", "target": "everyone"},
					},
				},
			},
		},
		{
			"type": "instant",
			"triggers": []interface{}{
				map[string]interface{}{
					"trigger": "onCast",
					"effects": []interface{}{
						map[string]interface{}{"kind": "discard", "method": "sideboard"},
					},
				},
			},
		},
		{
			"type":    "ritual",
			"install": map[string]interface{}{"range": -1},
		},
	}
	for i, raw := range cases {
		_, err := ParseConfig(raw)
		assert.Error(t, err, "case %d", i)
	}
}

func TestFromDefInjectsType(t *testing.T) {
	card, err := FromDef(CardDef{
		ID:       "bolt",
		Name:     "Bolt",
		ManaCost: 1,
		Type:     "instant",
		Effect: map[string]interface{}{
			"triggers": []interface{}{},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TypeInstant, card.Type)
}

func TestFromDefRejectsMissingPieces(t *testing.T) {
	_, err := FromDef(CardDef{Name: "x", Type: "instant"})
	assert.Error(t, err)

	_, err = FromDef(CardDef{ID: "x", Type: "instant"})
	assert.Error(t, err)
}
