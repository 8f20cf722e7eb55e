package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/shapeforge/internal/ir"
)

// ErrNoInstance is returned when a handle does not refer to a live instance.
var ErrNoInstance = errors.New("no live instance")

// Instance is a live shape in the simulated world.
type Instance struct {
	Handle ir.Handle
	Kind   ir.ShapeKind
	Class  string
	At     ir.Location
}

// EffectRecord is one played effect.
type EffectRecord struct {
	Effect string
	At     ir.Location
}

// ShapeLookup resolves spawn metadata. Implemented by *catalog.Catalog.
type ShapeLookup interface {
	ShapeSpawnInfo(kind ir.ShapeKind) (ir.SpawnInfo, error)
}

// SimOption configures a Sim.
type SimOption func(*Sim)

// WithHandleGenerator overrides the default UUIDv7 generator.
func WithHandleGenerator(g HandleGenerator) SimOption {
	return func(s *Sim) {
		s.gen = g
	}
}

// Sim is an in-memory spawn service. Safe for concurrent use.
type Sim struct {
	mu      sync.Mutex
	shapes  ShapeLookup
	gen     HandleGenerator
	live    map[ir.Handle]Instance
	order   []ir.Handle // spawn order, including despawned
	effects []EffectRecord
}

// NewSim creates an empty world.
func NewSim(shapes ShapeLookup, opts ...SimOption) *Sim {
	s := &Sim{
		shapes: shapes,
		gen:    UUIDv7Generator{},
		live:   make(map[ir.Handle]Instance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn implements machine.Spawner.
func (s *Sim) Spawn(ctx context.Context, info ir.SpawnInfo, at ir.Location) (ir.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if info.Class == "" {
		return "", fmt.Errorf("spawn %q: no spawnable class", info.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.gen.Generate()
	if _, taken := s.live[h]; taken {
		return "", fmt.Errorf("spawn %q: handle %s already live", info.Kind, h)
	}
	s.live[h] = Instance{Handle: h, Kind: info.Kind, Class: info.Class, At: at}
	s.order = append(s.order, h)
	return h, nil
}

// Despawn implements machine.Spawner. Despawning a handle that is not alive
// returns ErrNoInstance.
func (s *Sim) Despawn(ctx context.Context, h ir.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live[h]; !ok {
		return fmt.Errorf("despawn %s: %w", h, ErrNoInstance)
	}
	delete(s.live, h)
	return nil
}

// PlayEffect implements machine.Spawner. Effects are only recorded.
func (s *Sim) PlayEffect(_ context.Context, effect string, at ir.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, EffectRecord{Effect: effect, At: at})
	return nil
}

// Place spawns a world-owned shape of the given kind, e.g. one a player drops
// near a machine. The machine learns about it only through a proximity event.
func (s *Sim) Place(ctx context.Context, kind ir.ShapeKind, at ir.Location) (ir.Handle, error) {
	info, err := s.shapes.ShapeSpawnInfo(kind)
	if err != nil {
		return "", fmt.Errorf("place: %w", err)
	}
	return s.Spawn(ctx, info, at)
}

// Lookup returns the live instance behind h.
func (s *Sim) Lookup(h ir.Handle) (Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.live[h]
	if !ok {
		return Instance{}, fmt.Errorf("lookup %s: %w", h, ErrNoInstance)
	}
	return inst, nil
}

// LiveCount returns the number of live instances of kind.
func (s *Sim) LiveCount(kind ir.ShapeKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, inst := range s.live {
		if inst.Kind == kind {
			n++
		}
	}
	return n
}

// Live returns live instances in spawn order.
func (s *Sim) Live() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Instance, 0, len(s.live))
	for _, h := range s.order {
		if inst, ok := s.live[h]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Effects returns every effect played so far.
func (s *Sim) Effects() []EffectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EffectRecord, len(s.effects))
	copy(out, s.effects)
	return out
}
