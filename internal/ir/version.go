package ir

// Version constants for the journal schema and engine.
const (
	// JournalVersion is the journal record schema version.
	JournalVersion = "1"

	// EngineVersion is the shapeforge engine version.
	EngineVersion = "0.1.0"
)
