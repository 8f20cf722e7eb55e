package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ShapeKind names a category of consumable/producible object ("Cube", "Sphere").
//
// Kinds compare by exact, case-sensitive equality. Build them with Kind so that
// visually identical names from different sources (YAML, CUE, UI) intern to the
// same value.
type ShapeKind string

// Kind interns a shape kind name.
// The name is NFC normalized; no trimming or case folding is applied.
func Kind(name string) ShapeKind {
	return ShapeKind(norm.NFC.String(name))
}

// Kinds interns a list of names, preserving order and duplicates.
func Kinds(names ...string) []ShapeKind {
	out := make([]ShapeKind, len(names))
	for i, n := range names {
		out[i] = Kind(n)
	}
	return out
}

// String implements fmt.Stringer.
func (k ShapeKind) String() string { return string(k) }

// Handle is an opaque reference to a live shape instance.
// Issued by the spawn service; machines hold handles as membership only.
type Handle string

// String implements fmt.Stringer.
func (h Handle) String() string { return string(h) }

// Location is a world-space position.
type Location struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// String renders the location with fixed precision for logs and the journal.
func (l Location) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", l.X, l.Y, l.Z)
}

// RecipeDef is an immutable recipe definition.
//
// Inputs is ordered and may contain duplicates; each duplicate entry means one
// additional unit of that kind is consumed.
type RecipeDef struct {
	Name   string      `json:"name"`
	Inputs []ShapeKind `json:"inputs"`
	Output ShapeKind   `json:"output"`
}

// ShapeDef describes a shape kind in the catalog.
type ShapeDef struct {
	Kind        ShapeKind `json:"name"`
	Description string    `json:"description,omitempty"`
	Class       string    `json:"class"`            // spawnable class reference
	Effect      string    `json:"effect,omitempty"` // effect played when this kind is produced
}

// SpawnInfo is what the spawn service needs to create an instance of a kind.
type SpawnInfo struct {
	Kind        ShapeKind
	Description string
	Class       string
	Effect      string
}

// RecipeEntry is the UI view of a recipe on a specific machine.
type RecipeEntry struct {
	Name    string      `json:"name"`
	Inputs  []ShapeKind `json:"inputs"`
	Output  ShapeKind   `json:"output"`
	Enabled bool        `json:"enabled"`
}
