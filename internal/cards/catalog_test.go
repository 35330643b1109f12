package cards

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
  {
    "id": "bolt",
    "name": "Bolt",
    "manaCost": 1,
    "type": "instant",
    "effect": {
      "triggers": [
        {"trigger": "onCast", "effects": [
          {"kind": "damage", "value": 2, "target": "enemy"}
        ]}
      ]
    }
  },
  {
    "id": "totem",
    "name": "Totem",
    "manaCost": 2,
    "type": "ritual",
    "effect": {
      "install": {"range": 2},
      "triggers": []
    }
  }
]`

func TestLoadCatalog(t *testing.T) {
	list, err := LoadCatalog(strings.NewReader(catalogJSON))
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, TypeInstant, list[0].Type)
	assert.Equal(t, "bolt", list[0].ID)
	require.NotNil(t, list[1].Config.Install)
	assert.Equal(t, 2, list[1].Config.Install.Range)
}

func TestLoadCatalogRejectsMalformedCard(t *testing.T) {
	bad := `[{"id": "x", "type": "sorcery", "effect": {"triggers": []}}]`
	_, err := LoadCatalog(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestCachingProviderMemoizes(t *testing.T) {
	card, err := FromDef(CardDef{
		ID: "bolt", Type: "instant",
		Effect: map[string]interface{}{"triggers": []interface{}{}},
	})
	require.NoError(t, err)

	inner := &countingProvider{inner: NewStaticProvider([]*Card{card})}
	p := NewCachingProvider(inner)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := p.Lookup(ctx, "bolt")
		require.NoError(t, err)
		assert.Equal(t, "bolt", got.ID)
	}
	assert.Equal(t, 1, inner.calls)

	_, err = p.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingProvider struct {
	inner Provider
	calls int
}

func (c *countingProvider) Lookup(ctx context.Context, cardID string) (*Card, error) {
	c.calls++
	return c.inner.Lookup(ctx, cardID)
}
