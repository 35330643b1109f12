package cards

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CardDef is the wire/file form of a card definition. The effect
// configuration stays a raw map until ParseConfig validates it.
type CardDef struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	ManaCost int                    `json:"manaCost"`
	Type     string                 `json:"type"`
	Effect   map[string]interface{} `json:"effect"`
}

// FromDef validates a definition into a usable card. A malformed effect
// configuration makes the whole card unusable.
func FromDef(def CardDef) (*Card, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("card definition missing id")
	}
	if def.Effect == nil {
		return nil, fmt.Errorf("card %s: missing effect config", def.ID)
	}
	if _, ok := def.Effect["type"]; !ok {
		def.Effect["type"] = def.Type
	}
	cfg, err := ParseConfig(def.Effect)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", def.ID, err)
	}
	return &Card{
		ID:       def.ID,
		Name:     def.Name,
		ManaCost: def.ManaCost,
		Type:     cfg.Type,
		Config:   cfg,
	}, nil
}

// LoadCatalog reads a JSON array of card definitions.
func LoadCatalog(r io.Reader) ([]*Card, error) {
	var defs []CardDef
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return nil, fmt.Errorf("decode card catalog: %w", err)
	}
	out := make([]*Card, 0, len(defs))
	for _, def := range defs {
		card, err := FromDef(def)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

// LoadCatalogFile reads a card catalog from disk.
func LoadCatalogFile(path string) ([]*Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}
