package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_ValidCatalog(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/shapes.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Catalog valid (3 shapes, 2 recipes)")
}

func TestValidate_WithLevel(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/shapes.yaml", "--level", "testdata/level.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Level valid (2 machines)")
}

func TestValidate_JSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/shapes.yaml", "--level", "testdata/level.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Shapes)
	assert.Equal(t, 2, resp.Data.Recipes)
	assert.Equal(t, 2, resp.Data.Machines)
	assert.Len(t, resp.Data.Digest, 64)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_NOT_FOUND")
}

func TestValidate_InvalidCatalog(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/bad_recipes.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E_EMPTY_TABLE")
}

func TestValidate_InvalidCatalogJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/bad_recipes.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_EMPTY_TABLE", resp.Error.Code)
}

func TestValidate_InvalidLevel(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/shapes.yaml", "--level", "testdata/bad_level.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLevel)
	assert.Contains(t, out, "Smelt")
}
