package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRun(t *testing.T, opts *RunOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(opts.RootOptions)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRun_MissingFlags(t *testing.T) {
	_, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}}, "testdata/script.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRun_Script(t *testing.T) {
	out, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}},
		"--catalog", "testdata/shapes.yaml", "--level", "testdata/level.yaml", "testdata/script.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "[4] shape_entered machine=forge kind=Sphere transactions=1")
	assert.Contains(t, out, "[6] manual_spawn recipe=Merge error=")
	assert.Contains(t, out, "Events: 9 (2 failed), transactions: 1")
	assert.Contains(t, out, "live Cylinder: 1")
	assert.Contains(t, out, "live Sphere: 1")
	assert.NotContains(t, out, "Run ID")
}

func TestRun_ScriptJSON(t *testing.T) {
	out, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "json"}},
		"--catalog", "testdata/shapes.yaml", "--level", "testdata/level.yaml", "testdata/script.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Events, 9)
	assert.Equal(t, 2, resp.Data.Failed)
	assert.Equal(t, 1, resp.Data.Transactions)

	// The same id reuses the placed handle.
	assert.Equal(t, resp.Data.Events[0].Handle, resp.Data.Events[2].Handle)
	assert.Equal(t, "unplaced", resp.Data.Events[4].Handle)
	assert.Contains(t, resp.Data.Events[4].Error, "unknown shape kind")
	assert.Equal(t, "press", resp.Data.Events[8].Selected)
	assert.NotEmpty(t, resp.Data.Events[8].Produced)
	assert.Equal(t, map[string]int{"Cylinder": 1, "Sphere": 1}, resp.Data.Live)
}

func TestRun_BadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - {type: explode}\n"), 0644))

	_, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}},
		"--catalog", "testdata/shapes.yaml", "--level", "testdata/level.yaml", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestRun_BadLevel(t *testing.T) {
	_, err := executeRun(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}},
		"--catalog", "testdata/shapes.yaml", "--level", "testdata/bad_level.yaml", "testdata/script.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load world")
}

func TestLoadScript_ProximityNeedsKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - {type: shape_entered, machine: forge}\n"), 0644))

	_, err := LoadScript(path)
	assert.ErrorContains(t, err, "requires machine and kind")
}

func TestLoadScript_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - {type: select, machin: forge}\n"), 0644))

	_, err := LoadScript(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}
