package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/machine"
)

func intPtr(n int) *int { return &n }

func TestRun_ScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, result, err := RunFile(path)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	for _, name := range []string{"merge", "presence_quirk", "manual_spawn"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata/scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/toggle.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func inlineTables() *catalog.Tables {
	return &catalog.Tables{
		Shapes: []catalog.ShapeRow{
			{Name: "Cube", Class: "/Game/BP_Cube"},
			{Name: "Sphere", Class: "/Game/BP_Sphere"},
		},
		Recipes: []catalog.RecipeRow{
			{Name: "Roll", Inputs: []string{"Cube"}, Output: "Sphere"},
		},
	}
}

func TestRun_InlineTables(t *testing.T) {
	s := &Scenario{
		Name:     "inline",
		Tables:   inlineTables(),
		Machines: []machine.Config{{Name: "lathe", Recipes: []string{"Roll"}}},
		Steps: []Step{
			{Place: &PlaceStep{ID: "c1", Kind: "Cube"}},
			{Enter: &ProximityStep{Machine: "lathe", ID: "c1"}, ExpectTransactions: intPtr(1)},
		},
		Assertions: []Assertion{
			{Type: AssertLive, Kind: "Sphere", Count: intPtr(1)},
			{Type: AssertSpawned, Kinds: []string{"Sphere"}},
			{Type: AssertEffects, Effects: []string{}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	entered := result.Trace[1]
	assert.Equal(t, "shape_entered", entered.Type)
	assert.Equal(t, int64(1), entered.Seq)
	require.Len(t, entered.Transactions, 1)
	assert.Equal(t, []string{"h-0001"}, entered.Transactions[0].Consumed)
	assert.Equal(t, "h-0002", entered.Transactions[0].Produced)
}

func TestRun_FailedExpectationsAreReported(t *testing.T) {
	s := &Scenario{
		Name:     "failing",
		Tables:   inlineTables(),
		Machines: []machine.Config{{Name: "lathe", Recipes: []string{"Roll"}}},
		Steps: []Step{
			{Select: "lathe", ExpectError: "no_selection"},
			{Enter: &ProximityStep{Machine: "lathe", ID: "x", Kind: "Cube"}, ExpectTransactions: intPtr(0)},
		},
		Assertions: []Assertion{
			{Type: AssertLive, Kind: "Sphere", Count: intPtr(5)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected error no_selection, got success")
	assert.Contains(t, result.Errors[1], "expected 0 transactions, got 1")
	assert.Contains(t, result.Errors[2], "Assertion failed: live")
}

func TestRun_ExpectBuildErrorMismatch(t *testing.T) {
	s := &Scenario{
		Name:             "builds",
		Tables:           inlineTables(),
		Machines:         []machine.Config{{Name: "lathe", Recipes: []string{"Roll"}}},
		ExpectBuildError: "no_machines",
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "world built")
}

func TestRun_UnexpectedBuildErrorIsReturned(t *testing.T) {
	s := &Scenario{
		Name:   "broken",
		Tables: inlineTables(),
		Machines: []machine.Config{
			{Name: "lathe", Recipes: []string{"Roll"}},
			{Name: "lathe", Recipes: []string{"Roll"}},
		},
	}

	_, err := Run(s)
	assert.Error(t, err)
}

func TestRun_PlaceTwiceAborts(t *testing.T) {
	s := &Scenario{
		Name:     "twice",
		Tables:   inlineTables(),
		Machines: []machine.Config{{Name: "lathe"}},
		Steps: []Step{
			{Place: &PlaceStep{ID: "c1", Kind: "Cube"}},
			{Place: &PlaceStep{ID: "c1", Kind: "Cube"}},
		},
	}

	_, err := Run(s)
	assert.ErrorContains(t, err, "placed twice")
}

func TestRun_DespawnFailureTraced(t *testing.T) {
	// An unplaced id is used verbatim as the handle, so despawning it fails.
	s := &Scenario{
		Name:     "phantom",
		Tables:   inlineTables(),
		Machines: []machine.Config{{Name: "lathe", Recipes: []string{"Roll"}}},
		Steps: []Step{
			{Enter: &ProximityStep{Machine: "lathe", ID: "phantom", Kind: "Cube"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	require.Len(t, result.Trace[0].Transactions, 1)
	tx := result.Trace[0].Transactions[0]
	assert.Equal(t, []string{"phantom"}, tx.Consumed)
	assert.Equal(t, []string{"phantom"}, tx.DespawnFailures)
	assert.Equal(t, "h-0001", tx.Produced)
}

func TestCountTransactions(t *testing.T) {
	trace := []TraceEvent{
		{Transactions: []TraceTransaction{{Machine: "a", Recipe: "X"}, {Machine: "b", Recipe: "X"}}},
		{Transactions: []TraceTransaction{{Machine: "a", Recipe: "Y"}}},
	}

	assert.Equal(t, 3, countTransactions(trace, "", ""))
	assert.Equal(t, 2, countTransactions(trace, "a", ""))
	assert.Equal(t, 2, countTransactions(trace, "", "X"))
	assert.Equal(t, 1, countTransactions(trace, "a", "Y"))
	assert.Equal(t, 0, countTransactions(trace, "c", ""))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "live", Expected: "1 live Cube", Actual: "0"}
	assert.Equal(t, "Assertion failed: live\n  Expected: 1 live Cube\n  Actual: 0", err.Error())
}
