// Package inventory tracks which shape instances are currently near a machine.
//
// An Inventory maps every catalog shape kind to an ordered list of handles.
// Lists, not sets: the same kind may be present many times, and by default the
// same handle may even be listed twice if the proximity service reports a
// duplicate enter event (see DuplicatePolicy).
//
// Unknown kinds are a hard failure of this service (ErrUnknownKind). Callers
// are expected to log and no-op rather than propagate.
//
// Inventory is not safe for concurrent use; it is owned by exactly one machine
// and mutated only from that machine's event handlers.
package inventory

import (
	"errors"
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

var (
	// ErrUnknownKind is returned for a kind that was not in the catalog at initialization.
	ErrUnknownKind = errors.New("unknown shape kind")

	// ErrEmpty is returned by Pop when no instance of the kind is present.
	ErrEmpty = errors.New("no instance present")

	// ErrDuplicate is returned by Add under IgnoreDuplicates when the handle is already listed.
	ErrDuplicate = errors.New("instance already present")
)

// DuplicatePolicy controls what Add does with a handle that is already listed.
type DuplicatePolicy int

const (
	// AllowDuplicates appends the handle again (the list grows).
	AllowDuplicates DuplicatePolicy = iota
	// IgnoreDuplicates leaves the list unchanged and returns ErrDuplicate.
	IgnoreDuplicates
)

// String implements fmt.Stringer.
func (p DuplicatePolicy) String() string {
	switch p {
	case AllowDuplicates:
		return "allow"
	case IgnoreDuplicates:
		return "ignore"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy parses "allow" or "ignore". Empty means allow.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "allow":
		return AllowDuplicates, nil
	case "ignore":
		return IgnoreDuplicates, nil
	default:
		return AllowDuplicates, fmt.Errorf("invalid duplicate policy %q: must be allow or ignore", s)
	}
}

// Inventory is the per-machine collection of nearby shape instances.
type Inventory struct {
	shapes map[ir.ShapeKind][]ir.Handle
	kinds  []ir.ShapeKind
	policy DuplicatePolicy
}

// New allocates an empty list for every known kind.
func New(kinds []ir.ShapeKind, policy DuplicatePolicy) *Inventory {
	inv := &Inventory{
		shapes: make(map[ir.ShapeKind][]ir.Handle, len(kinds)),
		kinds:  make([]ir.ShapeKind, 0, len(kinds)),
		policy: policy,
	}
	for _, k := range kinds {
		if _, seen := inv.shapes[k]; seen {
			continue
		}
		inv.shapes[k] = nil
		inv.kinds = append(inv.kinds, k)
	}
	return inv
}

// Add appends a handle to the kind's list.
func (inv *Inventory) Add(kind ir.ShapeKind, h ir.Handle) error {
	list, ok := inv.shapes[kind]
	if !ok {
		return fmt.Errorf("add %s %q: %w", h, kind, ErrUnknownKind)
	}
	if inv.policy == IgnoreDuplicates && indexOf(list, h) >= 0 {
		return fmt.Errorf("add %s %q: %w", h, kind, ErrDuplicate)
	}
	inv.shapes[kind] = append(list, h)
	return nil
}

// Remove deletes the first occurrence of h from the kind's list.
// Returns false (and no error) when h is not present.
func (inv *Inventory) Remove(kind ir.ShapeKind, h ir.Handle) (bool, error) {
	list, ok := inv.shapes[kind]
	if !ok {
		return false, fmt.Errorf("remove %s %q: %w", h, kind, ErrUnknownKind)
	}
	i := indexOf(list, h)
	if i < 0 {
		return false, nil
	}
	inv.shapes[kind] = append(list[:i:i], list[i+1:]...)
	return true, nil
}

// Pop removes and returns the most recently added instance of kind.
func (inv *Inventory) Pop(kind ir.ShapeKind) (ir.Handle, error) {
	list, ok := inv.shapes[kind]
	if !ok {
		return "", fmt.Errorf("pop %q: %w", kind, ErrUnknownKind)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("pop %q: %w", kind, ErrEmpty)
	}
	h := list[len(list)-1]
	inv.shapes[kind] = list[:len(list)-1]
	return h, nil
}

// Count returns the number of listed instances of kind.
func (inv *Inventory) Count(kind ir.ShapeKind) (int, error) {
	list, ok := inv.shapes[kind]
	if !ok {
		return 0, fmt.Errorf("count %q: %w", kind, ErrUnknownKind)
	}
	return len(list), nil
}

// Handles returns a copy of the kind's list in insertion order.
func (inv *Inventory) Handles(kind ir.ShapeKind) ([]ir.Handle, error) {
	list, ok := inv.shapes[kind]
	if !ok {
		return nil, fmt.Errorf("handles %q: %w", kind, ErrUnknownKind)
	}
	out := make([]ir.Handle, len(list))
	copy(out, list)
	return out, nil
}

// Kinds returns the known kinds in initialization order.
func (inv *Inventory) Kinds() []ir.ShapeKind {
	out := make([]ir.ShapeKind, len(inv.kinds))
	copy(out, inv.kinds)
	return out
}

// Snapshot returns the count of every known kind.
func (inv *Inventory) Snapshot() map[ir.ShapeKind]int {
	out := make(map[ir.ShapeKind]int, len(inv.shapes))
	for k, list := range inv.shapes {
		out[k] = len(list)
	}
	return out
}

func indexOf(list []ir.Handle, h ir.Handle) int {
	for i, x := range list {
		if x == h {
			return i
		}
	}
	return -1
}
