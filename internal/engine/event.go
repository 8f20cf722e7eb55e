package engine

import (
	"fmt"

	"github.com/roach88/shapeforge/internal/front"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
)

// EventType tags an inbound event.
type EventType int

const (
	// EventShapeEntered reports a shape entering a machine's proximity zone.
	EventShapeEntered EventType = iota + 1
	// EventShapeLeft reports a shape leaving a machine's proximity zone.
	EventShapeLeft
	// EventSelect selects a machine for the session.
	EventSelect
	// EventClearSelection unsets the session's selection.
	EventClearSelection
	// EventToggle sets a recipe's enabled flag on the selected machine.
	EventToggle
	// EventManualSpawn spawns a recipe's output at the selected machine.
	EventManualSpawn
	// EventDescribe reads machine names and the selected machine's recipes.
	EventDescribe
)

var eventTypeNames = map[EventType]string{
	EventShapeEntered:   "shape_entered",
	EventShapeLeft:      "shape_left",
	EventSelect:         "select",
	EventClearSelection: "clear_selection",
	EventToggle:         "toggle",
	EventManualSpawn:    "manual_spawn",
	EventDescribe:       "describe",
}

// String returns the wire name, e.g. "shape_entered".
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType is the inverse of String.
func ParseEventType(s string) (EventType, error) {
	for t, name := range eventTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Event is one inbound proximity report or player command.
//
// Proximity events carry an explicit Kind tag; the engine never probes the
// referenced instance to find out what it is.
type Event struct {
	Type EventType

	// Machine is the target of proximity events and EventSelect.
	Machine string

	// Kind and Handle identify the shape in proximity events.
	Kind   ir.ShapeKind
	Handle ir.Handle

	// Recipe and Enabled parameterize EventToggle and EventManualSpawn.
	Recipe  string
	Enabled bool

	// Session scopes selection commands. Nil means the engine's default session.
	Session *front.Session

	// Reply, if set, receives the Result when the event is processed by Run.
	// It should be buffered; Run gives up on the send if ctx is cancelled.
	Reply chan<- Result
}

// ShapeEntered builds a proximity-enter event.
func ShapeEntered(machine string, kind ir.ShapeKind, h ir.Handle) Event {
	return Event{Type: EventShapeEntered, Machine: machine, Kind: kind, Handle: h}
}

// ShapeLeft builds a proximity-leave event.
func ShapeLeft(machine string, kind ir.ShapeKind, h ir.Handle) Event {
	return Event{Type: EventShapeLeft, Machine: machine, Kind: kind, Handle: h}
}

// Result is the outcome of one dispatched event.
type Result struct {
	Seq  int64
	Type EventType

	// Transactions executed as a consequence (enter, toggle).
	Transactions []machine.Transaction

	// Removed reports whether EventShapeLeft found the handle.
	Removed bool

	// Produced is the handle spawned by EventManualSpawn.
	Produced ir.Handle

	// Selected is the session's selection after the event.
	Selected string

	// Machines and Entries are filled by EventDescribe.
	Machines []string
	Entries  []ir.RecipeEntry

	// Err mirrors the error returned by Dispatch, for Reply consumers.
	Err error
}
