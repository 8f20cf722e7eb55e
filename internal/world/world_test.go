package world

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
	"github.com/roach88/shapeforge/internal/testutil"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("../catalog/testdata/shapes.yaml")
	require.NoError(t, err)
	return cat
}

func TestLoadLevel(t *testing.T) {
	lvl, err := LoadLevel("testdata/level.yaml")
	require.NoError(t, err)

	require.Len(t, lvl.Machines, 2)
	assert.Equal(t, "forge", lvl.Machines[0].Name)
	assert.Equal(t, []string{"Merge", "Double"}, lvl.Machines[0].Recipes)
	assert.Equal(t, ir.Location{X: 500}, lvl.Machines[1].Location)
	assert.Equal(t, "allow", lvl.Duplicates)
}

func TestLoadLevel_UnknownFieldRejected(t *testing.T) {
	_, err := LoadLevel("testdata/typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe")
}

func TestLoadLevel_Missing(t *testing.T) {
	_, err := LoadLevel("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParseLevel_BadDuplicatePolicy(t *testing.T) {
	_, err := ParseLevel([]byte("duplicates: sometimes\nmachines: []\n"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cat := loadCatalog(t)
	lvl, err := LoadLevel("testdata/level.yaml")
	require.NoError(t, err)

	w, err := Build(cat, lvl, testutil.NewRecordingSpawner(), WithLogger(quiet()))
	require.NoError(t, err)

	assert.Equal(t, []string{"forge", "press"}, w.Names())
	m, ok := w.Machine("press")
	require.True(t, ok)
	assert.Equal(t, []string{"Merge"}, m.Recipes())

	_, ok = w.Machine("nope")
	assert.False(t, ok)
}

func TestBuild_NoMachinesIsFatal(t *testing.T) {
	lvl, err := LoadLevel("testdata/empty.yaml")
	require.NoError(t, err)

	_, err = Build(loadCatalog(t), lvl, testutil.NewRecordingSpawner(), WithLogger(quiet()))
	assert.ErrorIs(t, err, ErrNoMachines)
}

func TestBuild_DuplicateName(t *testing.T) {
	lvl, err := LoadLevel("testdata/dup.yaml")
	require.NoError(t, err)

	_, err = Build(loadCatalog(t), lvl, testutil.NewRecordingSpawner(), WithLogger(quiet()))
	assert.ErrorIs(t, err, ErrDuplicateMachine)
}

func TestBuild_UnknownRecipe(t *testing.T) {
	lvl := Level{Machines: nil}
	lvl.Machines = append(lvl.Machines, machineConfig("forge", "Smelt"))

	_, err := Build(loadCatalog(t), lvl, testutil.NewRecordingSpawner(), WithLogger(quiet()))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestBuild_StrictCountsApplied(t *testing.T) {
	ctx := context.Background()
	lvl := Level{StrictCounts: true}
	lvl.Machines = append(lvl.Machines, machineConfig("forge", "Double"))
	sp := testutil.NewRecordingSpawner()

	w, err := Build(loadCatalog(t), lvl, sp, WithLogger(quiet()))
	require.NoError(t, err)
	m, _ := w.Machine("forge")

	txs, err := m.OnShapeEntered(ctx, "Cube", "c1")
	require.NoError(t, err)
	assert.Empty(t, txs, "strict counts need two cubes")
}

func TestSim_SpawnDespawnLookup(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(loadCatalog(t), WithHandleGenerator(testutil.NewSequentialHandles("h")))

	h, err := sim.Place(ctx, "Cube", ir.Location{X: 1})
	require.NoError(t, err)
	assert.Equal(t, ir.Handle("h-0001"), h)

	inst, err := sim.Lookup(h)
	require.NoError(t, err)
	assert.Equal(t, ir.ShapeKind("Cube"), inst.Kind)
	assert.Equal(t, "/Game/Shapes/BP_Cube", inst.Class)
	assert.Equal(t, 1, sim.LiveCount("Cube"))

	require.NoError(t, sim.Despawn(ctx, h))
	assert.Equal(t, 0, sim.LiveCount("Cube"))

	_, err = sim.Lookup(h)
	assert.ErrorIs(t, err, ErrNoInstance)
	assert.ErrorIs(t, sim.Despawn(ctx, h), ErrNoInstance)
}

func TestSim_PlaceUnknownKind(t *testing.T) {
	sim := NewSim(loadCatalog(t))
	_, err := sim.Place(context.Background(), "Pyramid", ir.Location{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSim_SpawnRequiresClass(t *testing.T) {
	sim := NewSim(loadCatalog(t))
	_, err := sim.Spawn(context.Background(), ir.SpawnInfo{Kind: "Cube"}, ir.Location{})
	assert.Error(t, err)
}

func TestSim_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewSim(loadCatalog(t))
	_, err := sim.Place(ctx, "Cube", ir.Location{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSim_LiveInSpawnOrderAndEffects(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(loadCatalog(t), WithHandleGenerator(testutil.NewSequentialHandles("h")))

	a, _ := sim.Place(ctx, "Cube", ir.Location{})
	b, _ := sim.Place(ctx, "Sphere", ir.Location{})
	c, _ := sim.Place(ctx, "Cylinder", ir.Location{})
	require.NoError(t, sim.Despawn(ctx, b))

	live := sim.Live()
	require.Len(t, live, 2)
	assert.Equal(t, a, live[0].Handle)
	assert.Equal(t, c, live[1].Handle)

	require.NoError(t, sim.PlayEffect(ctx, "fx/spawn_burst", ir.Location{Z: 3}))
	assert.Equal(t, []EffectRecord{{Effect: "fx/spawn_burst", At: ir.Location{Z: 3}}}, sim.Effects())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, string(a), 36)
	assert.NotEqual(t, a, b)
}

func machineConfig(name string, recipes ...string) machine.Config {
	return machine.Config{Name: name, Recipes: recipes}
}
