package machine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/testutil"
)

var origin = ir.Location{X: 10, Y: 20, Z: 0}

// testCatalog has Merge (Cube+Sphere -> Cylinder), Double (Cube+Cube ->
// Sphere), Ghost (references an unknown kind) and Triple (Sphere x3 -> Cube).
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromTables(catalog.Tables{
		SpawnEffect: "fx/spawn_burst",
		Shapes: []catalog.ShapeRow{
			{Name: "Cube", Class: "/Game/Shapes/BP_Cube"},
			{Name: "Sphere", Class: "/Game/Shapes/BP_Sphere"},
			{Name: "Cylinder", Class: "/Game/Shapes/BP_Cylinder", Effect: "fx/cylinder_pop"},
		},
		Recipes: []catalog.RecipeRow{
			{Name: "Merge", Inputs: []string{"Cube", "Sphere"}, Output: "Cylinder"},
			{Name: "Double", Inputs: []string{"Cube", "Cube"}, Output: "Sphere"},
			{Name: "Ghost", Inputs: []string{"Cube", "Pyramid"}, Output: "Cylinder"},
			{Name: "Triple", Inputs: []string{"Sphere", "Sphere", "Sphere"}, Output: "Cube"},
		},
	})
	require.NoError(t, err)
	return cat
}

type fixture struct {
	m   *Machine
	sp  *testutil.RecordingSpawner
	log *bytes.Buffer
}

func newFixture(t *testing.T, recipes []string, opts ...Option) *fixture {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sp := testutil.NewRecordingSpawner()

	opts = append([]Option{WithLogger(logger)}, opts...)
	m, err := New(Config{Name: "m1", Location: origin, Recipes: recipes}, testCatalog(t), sp, opts...)
	require.NoError(t, err)
	return &fixture{m: m, sp: sp, log: buf}
}
