// Package front routes player commands to the currently selected machine.
//
// The selection lives in a Session injected at construction, not in global
// state: each player (or test) gets its own. Commands issued with nothing
// selected fail with ErrNoSelection and change nothing.
package front

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
)

var (
	// ErrNoSelection is returned by commands issued with no machine selected.
	ErrNoSelection = errors.New("no machine selected")

	// ErrUnknownMachine is returned when a machine name is not registered.
	ErrUnknownMachine = errors.New("unknown machine")
)

// Registry resolves machines by name. Implemented by *world.World.
type Registry interface {
	Machine(name string) (*machine.Machine, bool)
	Names() []string
	Catalog() machine.Catalog
}

// Session holds one player's selected machine. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	selected string
}

// NewSession creates a session with nothing selected.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

func (s *Session) set(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = name
}

// Front dispatches selection-scoped commands.
type Front struct {
	reg     Registry
	session *Session
	log     *slog.Logger
}

// New creates a front over reg using session for selection state.
// A nil logger means slog.Default().
func New(reg Registry, session *Session, log *slog.Logger) *Front {
	if log == nil {
		log = slog.Default()
	}
	return &Front{reg: reg, session: session, log: log}
}

// Select makes name the current machine. An unknown name leaves the
// selection unchanged.
func (f *Front) Select(name string) error {
	if _, ok := f.reg.Machine(name); !ok {
		f.log.Error("cannot select unknown machine", "machine", name)
		return fmt.Errorf("select %q: %w", name, ErrUnknownMachine)
	}
	f.session.set(name)
	f.log.Debug("machine selected", "machine", name)
	return nil
}

// Clear unsets the selection.
func (f *Front) Clear() {
	f.session.set("")
}

// Selected returns the selected machine name, if any.
func (f *Front) Selected() (string, bool) {
	return f.session.get()
}

func (f *Front) current(op string) (*machine.Machine, error) {
	name, ok := f.session.get()
	if !ok {
		f.log.Error("no machine selected", "op", op)
		return nil, fmt.Errorf("%s: %w", op, ErrNoSelection)
	}
	m, ok := f.reg.Machine(name)
	if !ok {
		f.log.Error("selected machine no longer registered", "op", op, "machine", name)
		return nil, fmt.Errorf("%s %q: %w", op, name, ErrUnknownMachine)
	}
	return m, nil
}

// ManualSpawn spawns the output of recipe at the selected machine without
// consuming anything. The recipe is looked up in the catalog, so it need not
// be one the machine is affected by.
func (f *Front) ManualSpawn(ctx context.Context, recipe string) (ir.Handle, error) {
	m, err := f.current("manual spawn")
	if err != nil {
		return "", err
	}

	def, err := f.reg.Catalog().Recipe(recipe)
	if err != nil {
		f.log.Error("manual spawn of unknown recipe", "machine", m.Name(), "recipe", recipe)
		return "", fmt.Errorf("manual spawn: %w", err)
	}

	h, err := m.Produce(ctx, def.Output)
	if err != nil {
		return "", err
	}
	f.log.Info("manual spawn", "machine", m.Name(), "recipe", recipe, "handle", h)
	return h, nil
}

// Toggle sets a recipe's enabled flag on the selected machine, which
// re-evaluates its recipes.
func (f *Front) Toggle(ctx context.Context, recipe string, enabled bool) ([]machine.Transaction, error) {
	m, err := f.current("toggle")
	if err != nil {
		return nil, err
	}
	return m.SetEnabled(ctx, recipe, enabled)
}

// MachineNames lists every registered machine.
func (f *Front) MachineNames() []string {
	return f.reg.Names()
}

// RecipeEntries returns the recipe rows of a machine for display.
func (f *Front) RecipeEntries(name string) ([]ir.RecipeEntry, error) {
	m, ok := f.reg.Machine(name)
	if !ok {
		return nil, fmt.Errorf("recipe entries %q: %w", name, ErrUnknownMachine)
	}
	return m.RecipeEntries(), nil
}
