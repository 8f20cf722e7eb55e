package store

import "github.com/roach88/shapeforge/internal/ir"

// RunRecord identifies one engine session.
type RunRecord struct {
	ID             string `json:"id"`
	Label          string `json:"label,omitempty"`
	CatalogDigest  string `json:"catalog_digest"`
	EngineVersion  string `json:"engine_version"`
	JournalVersion string `json:"journal_version"`
}

// EventRecord is one dispatched event and its outcome.
type EventRecord struct {
	RunID   string       `json:"run_id"`
	Seq     int64        `json:"seq"`
	Type    string       `json:"type"`
	Machine string       `json:"machine,omitempty"`
	Kind    ir.ShapeKind `json:"kind,omitempty"`
	Handle  ir.Handle    `json:"handle,omitempty"`
	Recipe  string       `json:"recipe,omitempty"`
	Enabled bool         `json:"enabled,omitempty"`

	// Error is the dispatch error text; empty on success.
	Error string `json:"error,omitempty"`
}

// TransactionRecord is one recipe execution.
type TransactionRecord struct {
	ID              string         `json:"id"`
	RunID           string         `json:"run_id"`
	Seq             int64          `json:"seq"`
	Machine         string         `json:"machine"`
	Recipe          string         `json:"recipe"`
	Consumed        []ir.Handle    `json:"consumed"`
	Shortfalls      []ir.ShapeKind `json:"shortfalls"`
	DespawnFailures []ir.Handle    `json:"despawn_failures"`
	Output          ir.ShapeKind   `json:"output"`
	Produced        ir.Handle      `json:"produced,omitempty"`
	SpawnError      string         `json:"spawn_error,omitempty"`
}
