package world

import (
	"github.com/google/uuid"

	"github.com/roach88/shapeforge/internal/ir"
)

// HandleGenerator issues instance handles.
type HandleGenerator interface {
	Generate() ir.Handle
}

// UUIDv7Generator issues time-sortable UUIDv7 handles. Safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. Panics if the system random source fails.
func (UUIDv7Generator) Generate() ir.Handle {
	return ir.Handle(uuid.Must(uuid.NewV7()).String())
}
