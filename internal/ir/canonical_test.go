package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"b": 1,
		"a": "x",
		"c": []any{true, false},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,false]}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(out))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"k": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_ShapeKinds(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"inputs": Kinds("Cube", "Cube")})
	require.NoError(t, err)
	assert.Equal(t, `{"inputs":["Cube","Cube"]}`, string(out))
}

func TestKind_NFCNormalizes(t *testing.T) {
	// "é" composed vs. "e" + combining acute.
	assert.Equal(t, Kind("Caf\u00e9"), Kind("Cafe\u0301"))
	assert.NotEqual(t, Kind("cube"), Kind("Cube"), "kinds are case-sensitive")
}

func TestTransactionID_Stable(t *testing.T) {
	a, err := TransactionID("run-1", "Forge", "Merge", []Handle{"h-1", "h-2"}, 7)
	require.NoError(t, err)
	b, err := TransactionID("run-1", "Forge", "Merge", []Handle{"h-1", "h-2"}, 7)
	require.NoError(t, err)
	c, err := TransactionID("run-1", "Forge", "Merge", []Handle{"h-1", "h-2"}, 8)
	require.NoError(t, err)
	d, err := TransactionID("run-2", "Forge", "Merge", []Handle{"h-1", "h-2"}, 7)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d, "runs sharing a journal must not collide")
	assert.Len(t, a, 64)
}
