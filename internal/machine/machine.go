package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/shapeforge/internal/inventory"
	"github.com/roach88/shapeforge/internal/ir"
)

var (
	// ErrUnknownRecipe is returned when a recipe name is not affected by the machine.
	ErrUnknownRecipe = errors.New("recipe not affected by machine")

	// ErrNoName is returned by New when the machine has no name.
	ErrNoName = errors.New("machine name is required")
)

// Catalog is the read-only lookup service a machine resolves recipes and
// spawn metadata from. Implemented by *catalog.Catalog.
type Catalog interface {
	Recipe(name string) (ir.RecipeDef, error)
	ShapeSpawnInfo(kind ir.ShapeKind) (ir.SpawnInfo, error)
	AllShapeKinds() []ir.ShapeKind
	SpawnEffect() string
}

// Spawner creates and destroys shape instances and plays cosmetic effects.
// Implemented by *world.Sim; the game shell provides its own.
type Spawner interface {
	Spawn(ctx context.Context, info ir.SpawnInfo, at ir.Location) (ir.Handle, error)
	Despawn(ctx context.Context, h ir.Handle) error
	PlayEffect(ctx context.Context, effect string, at ir.Location) error
}

// Config describes a placed machine.
type Config struct {
	Name     string      `yaml:"name" json:"name"`
	Location ir.Location `yaml:"location" json:"location"`
	Recipes  []string    `yaml:"recipes" json:"recipes"`
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.log = l
	}
}

// WithStrictCounts makes IsSatisfiable require one instance per listed
// occurrence instead of one per distinct kind.
func WithStrictCounts() Option {
	return func(m *Machine) {
		m.strict = true
	}
}

// WithDuplicatePolicy sets how repeated enter events for the same handle are treated.
func WithDuplicatePolicy(p inventory.DuplicatePolicy) Option {
	return func(m *Machine) {
		m.dupPolicy = p
	}
}

type recipeState struct {
	def     ir.RecipeDef
	enabled bool
}

// Machine is a stationary converter of nearby shapes.
type Machine struct {
	name     string
	location ir.Location

	catalog Catalog
	spawner Spawner
	inv     *inventory.Inventory

	recipes []*recipeState          // definition order
	byName  map[string]*recipeState // same states, by name

	strict    bool
	dupPolicy inventory.DuplicatePolicy
	log       *slog.Logger
}

// New creates a machine, resolving its affected recipes through the catalog
// and allocating an inventory entry for every catalog shape kind.
//
// An affected recipe name missing from the catalog is a configuration error.
// A machine with no recipes is legal but logged.
func New(cfg Config, cat Catalog, sp Spawner, opts ...Option) (*Machine, error) {
	if cfg.Name == "" {
		return nil, ErrNoName
	}

	m := &Machine{
		name:     cfg.Name,
		location: cfg.Location,
		catalog:  cat,
		spawner:  sp,
		byName:   make(map[string]*recipeState, len(cfg.Recipes)),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("machine", m.name)

	for _, name := range cfg.Recipes {
		if _, dup := m.byName[name]; dup {
			m.log.Warn("recipe listed twice, keeping first", "recipe", name)
			continue
		}
		def, err := cat.Recipe(name)
		if err != nil {
			return nil, fmt.Errorf("machine %s: %w", cfg.Name, err)
		}
		rs := &recipeState{def: def, enabled: true}
		m.recipes = append(m.recipes, rs)
		m.byName[name] = rs
	}
	if len(m.recipes) == 0 {
		m.log.Warn("no recipes affected by machine")
	}

	m.inv = inventory.New(cat.AllShapeKinds(), m.dupPolicy)

	return m, nil
}

// Name returns the machine's unique name.
func (m *Machine) Name() string { return m.name }

// Location returns where outputs are produced.
func (m *Machine) Location() ir.Location { return m.location }

// Recipes returns the affected recipe names in definition order.
func (m *Machine) Recipes() []string {
	out := make([]string, len(m.recipes))
	for i, rs := range m.recipes {
		out[i] = rs.def.Name
	}
	return out
}

// Count returns how many instances of kind are currently nearby.
func (m *Machine) Count(kind ir.ShapeKind) (int, error) {
	return m.inv.Count(kind)
}

// Inventory returns the count of every known kind.
func (m *Machine) Inventory() map[ir.ShapeKind]int {
	return m.inv.Snapshot()
}

// OnShapeEntered records a shape entering proximity, then re-evaluates all
// recipes. Unknown kinds and ignored duplicates are logged and leave the
// machine untouched.
func (m *Machine) OnShapeEntered(ctx context.Context, kind ir.ShapeKind, h ir.Handle) ([]Transaction, error) {
	if err := m.inv.Add(kind, h); err != nil {
		if errors.Is(err, inventory.ErrUnknownKind) {
			m.log.Warn("unknown shape entered proximity, likely missing from the shape table",
				"shape", kind,
				"handle", h,
			)
		} else {
			m.log.Warn("duplicate enter event ignored",
				"shape", kind,
				"handle", h,
			)
		}
		return nil, err
	}

	m.log.Debug("shape entered", "shape", kind, "handle", h)
	return m.ProcessAllRecipes(ctx), nil
}

// OnShapeLeft removes one listed occurrence of h. It never triggers matching.
// Returns false when h was not listed.
func (m *Machine) OnShapeLeft(ctx context.Context, kind ir.ShapeKind, h ir.Handle) (bool, error) {
	removed, err := m.inv.Remove(kind, h)
	if err != nil {
		m.log.Warn("unknown shape left proximity, likely missing from the shape table",
			"shape", kind,
			"handle", h,
		)
		return false, err
	}
	m.log.Debug("shape left", "shape", kind, "handle", h, "removed", removed)
	return removed, nil
}
