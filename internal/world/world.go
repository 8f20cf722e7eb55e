package world

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/shapeforge/internal/inventory"
	"github.com/roach88/shapeforge/internal/machine"
)

var (
	// ErrNoMachines is a fatal configuration error: a level must place at least one machine.
	ErrNoMachines = errors.New("no machines placed")

	// ErrDuplicateMachine is returned by Build when two machines share a name.
	ErrDuplicateMachine = errors.New("duplicate machine name")
)

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	log *slog.Logger
}

// WithLogger sets the logger handed to every machine.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) {
		o.log = l
	}
}

// World is the registry of placed machines.
type World struct {
	catalog  machine.Catalog
	machines map[string]*machine.Machine
	order    []string
}

// Build creates every machine in the level. Any configuration error (no
// machines, duplicate names, unknown recipe names) fails the whole build.
func Build(cat machine.Catalog, lvl Level, sp machine.Spawner, opts ...Option) (*World, error) {
	o := buildOptions{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(lvl.Machines) == 0 {
		return nil, ErrNoMachines
	}

	policy, err := inventory.ParseDuplicatePolicy(lvl.Duplicates)
	if err != nil {
		return nil, err
	}
	mopts := []machine.Option{
		machine.WithLogger(o.log),
		machine.WithDuplicatePolicy(policy),
	}
	if lvl.StrictCounts {
		mopts = append(mopts, machine.WithStrictCounts())
	}

	w := &World{
		catalog:  cat,
		machines: make(map[string]*machine.Machine, len(lvl.Machines)),
	}
	for _, cfg := range lvl.Machines {
		if _, dup := w.machines[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMachine, cfg.Name)
		}
		m, err := machine.New(cfg, cat, sp, mopts...)
		if err != nil {
			return nil, err
		}
		w.machines[cfg.Name] = m
		w.order = append(w.order, cfg.Name)
	}

	o.log.Info("world built",
		"machines", len(w.order),
		"strict_counts", lvl.StrictCounts,
		"duplicates", policy.String(),
	)
	return w, nil
}

// Machine returns the machine with the given name.
func (w *World) Machine(name string) (*machine.Machine, bool) {
	m, ok := w.machines[name]
	return m, ok
}

// Names returns machine names in placement order.
func (w *World) Names() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Catalog returns the catalog the machines were built from.
func (w *World) Catalog() machine.Catalog {
	return w.catalog
}
