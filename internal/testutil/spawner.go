package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/shapeforge/internal/ir"
)

// ErrInjected is returned by RecordingSpawner operations set up to fail.
var ErrInjected = errors.New("injected failure")

// SpawnCall records one Spawn request.
type SpawnCall struct {
	Info   ir.SpawnInfo
	At     ir.Location
	Handle ir.Handle // empty when the spawn failed
}

// EffectCall records one PlayEffect request.
type EffectCall struct {
	Effect string
	At     ir.Location
}

// RecordingSpawner records every spawner call and can be told to fail.
type RecordingSpawner struct {
	mu sync.Mutex

	handles *SequentialHandles

	Spawns   []SpawnCall
	Despawns []ir.Handle
	Effects  []EffectCall

	FailSpawn   map[ir.ShapeKind]bool
	FailDespawn map[ir.Handle]bool
	FailEffects bool
}

// NewRecordingSpawner creates a spawner issuing "out-0001", "out-0002", ...
func NewRecordingSpawner() *RecordingSpawner {
	return &RecordingSpawner{
		handles:     NewSequentialHandles("out"),
		FailSpawn:   map[ir.ShapeKind]bool{},
		FailDespawn: map[ir.Handle]bool{},
	}
}

// Spawn implements machine.Spawner.
func (s *RecordingSpawner) Spawn(_ context.Context, info ir.SpawnInfo, at ir.Location) (ir.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSpawn[info.Kind] {
		s.Spawns = append(s.Spawns, SpawnCall{Info: info, At: at})
		return "", ErrInjected
	}
	h := s.handles.Generate()
	s.Spawns = append(s.Spawns, SpawnCall{Info: info, At: at, Handle: h})
	return h, nil
}

// Despawn implements machine.Spawner.
func (s *RecordingSpawner) Despawn(_ context.Context, h ir.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Despawns = append(s.Despawns, h)
	if s.FailDespawn[h] {
		return ErrInjected
	}
	return nil
}

// PlayEffect implements machine.Spawner.
func (s *RecordingSpawner) PlayEffect(_ context.Context, effect string, at ir.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Effects = append(s.Effects, EffectCall{Effect: effect, At: at})
	if s.FailEffects {
		return ErrInjected
	}
	return nil
}

// SpawnedKinds returns the kinds of successful spawns in call order.
func (s *RecordingSpawner) SpawnedKinds() []ir.ShapeKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ir.ShapeKind
	for _, c := range s.Spawns {
		if c.Handle != "" {
			out = append(out, c.Info.Kind)
		}
	}
	return out
}
