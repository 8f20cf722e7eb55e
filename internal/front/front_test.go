package front

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
	"github.com/roach88/shapeforge/internal/world"
)

type fixture struct {
	front *Front
	world *world.World
	sp    *testutil.RecordingSpawner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.Load("../catalog/testdata/shapes.yaml")
	require.NoError(t, err)

	sp := testutil.NewRecordingSpawner()
	w, err := world.Build(cat, world.Level{Machines: []machine.Config{
		{Name: "forge", Location: ir.Location{X: 1, Y: 2, Z: 3}, Recipes: []string{"Merge"}},
		{Name: "press", Recipes: []string{"Double"}},
	}}, sp, world.WithLogger(quiet))
	require.NoError(t, err)

	return &fixture{front: New(w, NewSession(), quiet), world: w, sp: sp}
}

func (f *fixture) inventory(name string) map[ir.ShapeKind]int {
	m, _ := f.world.Machine(name)
	return m.Inventory()
}

func TestSelect(t *testing.T) {
	f := newFixture(t)

	_, ok := f.front.Selected()
	assert.False(t, ok, "initially unset")

	require.NoError(t, f.front.Select("forge"))
	name, ok := f.front.Selected()
	assert.True(t, ok)
	assert.Equal(t, "forge", name)

	err := f.front.Select("nope")
	assert.ErrorIs(t, err, ErrUnknownMachine)
	name, _ = f.front.Selected()
	assert.Equal(t, "forge", name, "failed select keeps previous selection")

	f.front.Clear()
	_, ok = f.front.Selected()
	assert.False(t, ok)
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	other := New(f.world, NewSession(), nil)

	require.NoError(t, f.front.Select("forge"))
	_, ok := other.Selected()
	assert.False(t, ok)
}

func TestNoSelectionFailsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := f.world.Machine("forge")
	_, err := m.OnShapeEntered(ctx, "Cube", "c1")
	require.NoError(t, err)

	before := f.inventory("forge")
	entries := m.RecipeEntries()

	_, err = f.front.ManualSpawn(ctx, "Merge")
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = f.front.Toggle(ctx, "Merge", false)
	assert.ErrorIs(t, err, ErrNoSelection)

	assert.Empty(t, f.sp.Spawns)
	assert.Empty(t, f.sp.Despawns)
	assert.Equal(t, before, f.inventory("forge"))
	assert.Equal(t, entries, m.RecipeEntries())
}

func TestManualSpawnLeavesInventoryUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := f.world.Machine("forge")
	_, err := m.OnShapeEntered(ctx, "Cube", "c1")
	require.NoError(t, err)
	before := f.inventory("forge")

	require.NoError(t, f.front.Select("forge"))
	h, err := f.front.ManualSpawn(ctx, "Merge")
	require.NoError(t, err)
	assert.NotEmpty(t, h)

	assert.Equal(t, before, f.inventory("forge"))
	require.Len(t, f.sp.Spawns, 1)
	assert.Equal(t, ir.ShapeKind("Cylinder"), f.sp.Spawns[0].Info.Kind)
	assert.Equal(t, ir.Location{X: 1, Y: 2, Z: 3}, f.sp.Spawns[0].At)
	assert.Empty(t, f.sp.Despawns)
}

func TestManualSpawnUsesCatalogNotMachineRecipes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.front.Select("forge"))

	// forge is not affected by Double, but the catalog has it
	_, err := f.front.ManualSpawn(context.Background(), "Double")
	require.NoError(t, err)
	assert.Equal(t, []ir.ShapeKind{"Sphere"}, f.sp.SpawnedKinds())
}

func TestManualSpawnUnknownRecipe(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.front.Select("forge"))

	_, err := f.front.ManualSpawn(context.Background(), "Smelt")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, f.sp.Spawns)
}

func TestToggleDelegatesToSelectedMachine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.front.Select("forge"))

	_, err := f.front.Toggle(ctx, "Merge", false)
	require.NoError(t, err)

	m, _ := f.world.Machine("forge")
	enabled, err := m.Enabled("Merge")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = f.front.Toggle(ctx, "Double", false)
	assert.ErrorIs(t, err, machine.ErrUnknownRecipe)
}

func TestMachineNamesAndEntries(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"forge", "press"}, f.front.MachineNames())

	entries, err := f.front.RecipeEntries("press")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Double", entries[0].Name)
	assert.True(t, entries[0].Enabled)

	_, err = f.front.RecipeEntries("nope")
	assert.ErrorIs(t, err, ErrUnknownMachine)
}
