package harness

import (
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
)

// TraceEvent is one step as observed by the harness.
type TraceEvent struct {
	Seq     int64  `json:"seq,omitempty"` // 0 for place steps, which are not dispatched
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Machine string `json:"machine,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Recipe  string `json:"recipe,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Removed *bool  `json:"removed,omitempty"`

	Produced string `json:"produced,omitempty"`
	Selected string `json:"selected,omitempty"`
	Error    string `json:"error,omitempty"`

	Transactions []TraceTransaction `json:"transactions,omitempty"`
}

// TraceTransaction is a recipe execution inside a TraceEvent.
type TraceTransaction struct {
	Machine         string   `json:"machine"`
	Recipe          string   `json:"recipe"`
	Consumed        []string `json:"consumed"`
	Shortfalls      []string `json:"shortfalls,omitempty"`
	DespawnFailures []string `json:"despawn_failures,omitempty"`
	Output          string   `json:"output"`
	Produced        string   `json:"produced,omitempty"`
	SpawnFailed     bool     `json:"spawn_failed,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations; empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func traceTransaction(tx machine.Transaction) TraceTransaction {
	return TraceTransaction{
		Machine:         tx.Machine,
		Recipe:          tx.Recipe,
		Consumed:        handleStrings(tx.Consumed),
		Shortfalls:      kindStrings(tx.Shortfalls),
		DespawnFailures: handleStrings(tx.DespawnFailures),
		Output:          string(tx.Output),
		Produced:        string(tx.Produced),
		SpawnFailed:     tx.SpawnErr != nil,
	}
}

func handleStrings(hs []ir.Handle) []string {
	if len(hs) == 0 {
		return nil
	}
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = string(h)
	}
	return out
}

func kindStrings(ks []ir.ShapeKind) []string {
	if len(ks) == 0 {
		return nil
	}
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}
