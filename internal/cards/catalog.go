package cards

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Cards []catalogEntry `yaml:"cards"`
}

type catalogEntry struct {
	Key     string   `yaml:"key"`
	Name    string   `yaml:"name"`
	Cost    int      `yaml:"cost"`
	Types   []string `yaml:"types"`
	Cards   int      `yaml:"cards"`
	Actions int      `yaml:"actions"`
	Buys    int      `yaml:"buys"`
	Coins   int      `yaml:"coins"`
	VP      int      `yaml:"vp"`
	Supply  int      `yaml:"supply"`
}

// Catalog parses the embedded card catalog. The catalog is validated once at
// startup; a malformed entry is a build-content defect, not a runtime
// condition, so the error is meant to be fatal to the caller.
func Catalog() ([]engine.CardSpec, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("cards: parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(file.Cards))
	specs := make([]engine.CardSpec, 0, len(file.Cards))
	for _, c := range file.Cards {
		if c.Key == "" || c.Name == "" {
			return nil, fmt.Errorf("cards: catalog entry missing key or name: %+v", c)
		}
		if seen[c.Key] {
			return nil, fmt.Errorf("cards: duplicate catalog key %q", c.Key)
		}
		seen[c.Key] = true
		specs = append(specs, engine.CardSpec{
			Key:     c.Key,
			Name:    c.Name,
			Cost:    c.Cost,
			Types:   c.Types,
			Cards:   c.Cards,
			Actions: c.Actions,
			Buys:    c.Buys,
			Coins:   c.Coins,
			VP:      c.VP,
			Supply:  c.Supply,
		})
	}
	return specs, nil
}

// MustCatalog is Catalog for callers that treat content defects as fatal.
func MustCatalog() []engine.CardSpec {
	specs, err := Catalog()
	if err != nil {
		panic(err)
	}
	return specs
}
