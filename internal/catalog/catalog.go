// Package catalog manages the YAML-defined catalog of collectable easter eggs.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thebtf/devconsole/pkg/models"
)

// Well-known egg IDs referenced from code.
const (
	TerminalReadme = "terminal-readme"
)

//go:embed eggs.yaml
var defaultCatalog []byte

// ErrUnknownEgg is returned when an ID is not in the catalog.
var ErrUnknownEgg = errors.New("unknown egg")

// Config is the top-level YAML structure.
type Config struct {
	Eggs []models.EggDefinition `yaml:"eggs"`
}

// Registry holds catalog entries keyed by ID.
type Registry struct {
	byID  map[string]*models.EggDefinition
	order []string // preserves definition order
}

// Default returns the embedded catalog.
func Default() *Registry {
	r, err := Parse(defaultCatalog)
	if err != nil {
		panic("embedded egg catalog is invalid: " + err.Error())
	}
	return r
}

// Load reads a catalog file. If the file does not exist, Load returns the
// embedded default catalog.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse builds a Registry from YAML. IDs must be unique and non-empty and
// points must be positive.
func Parse(data []byte) (*Registry, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	r := &Registry{
		byID: make(map[string]*models.EggDefinition, len(cfg.Eggs)),
	}
	for i := range cfg.Eggs {
		def := &cfg.Eggs[i]
		if def.ID == "" {
			return nil, fmt.Errorf("egg %d: empty id", i)
		}
		if def.Points <= 0 {
			return nil, fmt.Errorf("egg %q: points must be positive", def.ID)
		}
		if _, dup := r.byID[def.ID]; dup {
			return nil, fmt.Errorf("egg %q: duplicate id", def.ID)
		}
		r.byID[def.ID] = def
		r.order = append(r.order, def.ID)
	}
	return r, nil
}

// Get returns an entry by ID. Returns (nil, false) if not found.
func (r *Registry) Get(id string) (*models.EggDefinition, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Lookup is Get with an error for unknown IDs.
func (r *Registry) Lookup(id string) (models.EggDefinition, error) {
	d, ok := r.byID[id]
	if !ok {
		return models.EggDefinition{}, fmt.Errorf("%w: %s", ErrUnknownEgg, id)
	}
	return *d, nil
}

// All returns all entries in definition order.
func (r *Registry) All() []models.EggDefinition {
	result := make([]models.EggDefinition, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *r.byID[id])
	}
	return result
}

// TotalPoints returns the maximum score obtainable from the catalog.
func (r *Registry) TotalPoints() int {
	total := 0
	for _, d := range r.byID {
		total += d.Points
	}
	return total
}

// Progress pairs every catalog entry with the discovery state found in eggs.
// Discovered eggs that are not in the catalog are ignored.
func (r *Registry) Progress(eggs []models.Egg) []models.EggProgress {
	found := make(map[string]int64, len(eggs))
	for _, egg := range eggs {
		found[egg.ID] = egg.Timestamp
	}

	result := make([]models.EggProgress, 0, len(r.order))
	for _, id := range r.order {
		ts, ok := found[id]
		result = append(result, models.EggProgress{
			EggDefinition: *r.byID[id],
			Collected:     ok,
			DiscoveredAt:  ts,
		})
	}
	return result
}
