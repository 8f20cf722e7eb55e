package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapeforge/internal/ir"
)

func newTestInventory(policy DuplicatePolicy) *Inventory {
	return New(ir.Kinds("Cube", "Sphere", "Cylinder"), policy)
}

func mustCount(t *testing.T, inv *Inventory, kind string) int {
	t.Helper()
	n, err := inv.Count(ir.Kind(kind))
	require.NoError(t, err)
	return n
}

func TestNew_EveryKnownKindHasAnEntry(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)

	for _, k := range []string{"Cube", "Sphere", "Cylinder"} {
		assert.Equal(t, 0, mustCount(t, inv, k))
	}
	assert.Equal(t, ir.Kinds("Cube", "Sphere", "Cylinder"), inv.Kinds())
}

func TestUnknownKind_FailsLoudly(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)

	_, err := inv.Count("Pyramid")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	err = inv.Add("Pyramid", "h-1")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = inv.Remove("Pyramid", "h-1")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = inv.Pop("Pyramid")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestAddRemove_RoundTrip(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)
	require.NoError(t, inv.Add("Cube", "h-1"))
	before := mustCount(t, inv, "Cube")

	require.NoError(t, inv.Add("Cube", "h-2"))
	removed, err := inv.Remove("Cube", "h-2")
	require.NoError(t, err)

	assert.True(t, removed)
	assert.Equal(t, before, mustCount(t, inv, "Cube"))
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)
	require.NoError(t, inv.Add("Cube", "h-1"))
	before := inv.Snapshot()

	removed, err := inv.Remove("Cube", "h-404")
	require.NoError(t, err)

	assert.False(t, removed)
	assert.Equal(t, before, inv.Snapshot())
}

func TestRemove_OnlyFirstMatch(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)
	require.NoError(t, inv.Add("Cube", "h-1"))
	require.NoError(t, inv.Add("Cube", "h-2"))
	require.NoError(t, inv.Add("Cube", "h-1"))

	removed, err := inv.Remove("Cube", "h-1")
	require.NoError(t, err)
	require.True(t, removed)

	handles, err := inv.Handles("Cube")
	require.NoError(t, err)
	assert.Equal(t, []ir.Handle{"h-2", "h-1"}, handles)
}

func TestAdd_DuplicatePolicy(t *testing.T) {
	t.Run("allow grows the list", func(t *testing.T) {
		inv := newTestInventory(AllowDuplicates)
		require.NoError(t, inv.Add("Cube", "h-1"))
		require.NoError(t, inv.Add("Cube", "h-1"))
		assert.Equal(t, 2, mustCount(t, inv, "Cube"))
	})

	t.Run("ignore keeps one entry", func(t *testing.T) {
		inv := newTestInventory(IgnoreDuplicates)
		require.NoError(t, inv.Add("Cube", "h-1"))
		err := inv.Add("Cube", "h-1")
		assert.True(t, errors.Is(err, ErrDuplicate))
		assert.Equal(t, 1, mustCount(t, inv, "Cube"))
	})
}

func TestPop_LastInFirstOut(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)
	require.NoError(t, inv.Add("Sphere", "h-1"))
	require.NoError(t, inv.Add("Sphere", "h-2"))

	h, err := inv.Pop("Sphere")
	require.NoError(t, err)
	assert.Equal(t, ir.Handle("h-2"), h)

	h, err = inv.Pop("Sphere")
	require.NoError(t, err)
	assert.Equal(t, ir.Handle("h-1"), h)

	_, err = inv.Pop("Sphere")
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestHandles_ReturnsCopy(t *testing.T) {
	inv := newTestInventory(AllowDuplicates)
	require.NoError(t, inv.Add("Cube", "h-1"))

	handles, err := inv.Handles("Cube")
	require.NoError(t, err)
	handles[0] = "mutated"

	again, _ := inv.Handles("Cube")
	assert.Equal(t, []ir.Handle{"h-1"}, again)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, AllowDuplicates, p)

	p, err = ParseDuplicatePolicy("ignore")
	require.NoError(t, err)
	assert.Equal(t, IgnoreDuplicates, p)
	assert.Equal(t, "ignore", p.String())

	_, err = ParseDuplicatePolicy("dedupe")
	assert.Error(t, err)
}
