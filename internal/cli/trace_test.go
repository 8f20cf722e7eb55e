package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/store"
)

// journaledRun runs the test script into a fresh database and returns its path.
func journaledRun(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "run.db")
	_, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}},
		"--catalog", "testdata/shapes.yaml", "--level", "testdata/level.yaml",
		"--db", db, "--label", "smoke", "testdata/script.yaml")
	require.NoError(t, err)
	return db
}

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrace_MissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTrace_NonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTrace_EmptyJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = executeTrace(t, "text", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNoRuns)
}

func TestTrace_Text(t *testing.T) {
	db := journaledRun(t)

	out, err := executeTrace(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "(smoke)")
	assert.Contains(t, out, "[4] SHAPE_ENTERED machine=forge kind=Sphere")
	assert.Contains(t, out, "Merge -> Cylinder")
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "Transactions:     1")
	assert.Contains(t, out, "Failed Events:    2")
}

func TestTrace_JSONWithMachineFilter(t *testing.T) {
	db := journaledRun(t)

	out, err := executeTrace(t, "json", "--db", db, "--machine", "forge")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "smoke", resp.Data.Run.Label)
	assert.Equal(t, 4, resp.Data.Stats.TotalEvents)
	assert.Equal(t, 1, resp.Data.Stats.Transactions)
	for _, ev := range resp.Data.Timeline {
		assert.Equal(t, "forge", ev.Machine)
	}
}

func TestTrace_ListAndUnknownRun(t *testing.T) {
	db := journaledRun(t)

	out, err := executeTrace(t, "text", "--db", db, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "smoke")

	_, err = executeTrace(t, "text", "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestExport_WritesZstdJSONL(t *testing.T) {
	db := journaledRun(t)
	outPath := filepath.Join(t.TempDir(), "run.jsonl.zst")

	buf := &bytes.Buffer{}
	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--out", outPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Exported 11 line(s)")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	lines, err := store.ReadExport(f)
	require.NoError(t, err)
	require.Len(t, lines, 11)
	assert.Equal(t, "run", lines[0].Record)
	assert.Equal(t, "smoke", lines[0].Run.Label)
}

func TestExport_MissingOut(t *testing.T) {
	cmd := NewExportCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", "x.db"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
