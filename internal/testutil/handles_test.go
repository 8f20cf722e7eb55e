package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/ir"
)

func TestSequentialHandles(t *testing.T) {
	gen := NewSequentialHandles("cube")
	assert.Equal(t, ir.Handle("cube-0001"), gen.Generate())
	assert.Equal(t, ir.Handle("cube-0002"), gen.Generate())

	assert.Equal(t, ir.Handle("shape-0001"), NewSequentialHandles("").Generate())
}

func TestRecordingSpawner_FailureInjection(t *testing.T) {
	ctx := context.Background()
	sp := NewRecordingSpawner()
	sp.FailSpawn["Cube"] = true
	sp.FailDespawn["c1"] = true

	_, err := sp.Spawn(ctx, ir.SpawnInfo{Kind: "Cube"}, ir.Location{})
	require.ErrorIs(t, err, ErrInjected)

	h, err := sp.Spawn(ctx, ir.SpawnInfo{Kind: "Sphere"}, ir.Location{})
	require.NoError(t, err)
	assert.Equal(t, ir.Handle("out-0001"), h)

	assert.ErrorIs(t, sp.Despawn(ctx, "c1"), ErrInjected)
	assert.NoError(t, sp.Despawn(ctx, "c2"))

	assert.Equal(t, []ir.ShapeKind{"Sphere"}, sp.SpawnedKinds())
	assert.Len(t, sp.Spawns, 2)
	assert.Equal(t, []ir.Handle{"c1", "c2"}, sp.Despawns)
}
