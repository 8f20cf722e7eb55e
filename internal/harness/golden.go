package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/shapeforge/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles maps, slices and primitives. Empty fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{"type": ev.Type}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		putString(m, "id", ev.ID)
		putString(m, "machine", ev.Machine)
		putString(m, "kind", ev.Kind)
		putString(m, "handle", ev.Handle)
		putString(m, "recipe", ev.Recipe)
		putString(m, "produced", ev.Produced)
		putString(m, "selected", ev.Selected)
		putString(m, "error", ev.Error)
		if ev.Enabled != nil {
			m["enabled"] = *ev.Enabled
		}
		if ev.Removed != nil {
			m["removed"] = *ev.Removed
		}
		if len(ev.Transactions) > 0 {
			txs := make([]any, len(ev.Transactions))
			for j, tx := range ev.Transactions {
				txs[j] = transactionMap(tx)
			}
			m["transactions"] = txs
		}
		traceList[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Canonical returns the snapshot as canonical JSON, the golden file format.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

func transactionMap(tx TraceTransaction) map[string]any {
	m := map[string]any{
		"machine":  tx.Machine,
		"recipe":   tx.Recipe,
		"consumed": tx.Consumed,
		"output":   tx.Output,
	}
	putString(m, "produced", tx.Produced)
	if len(tx.Shortfalls) > 0 {
		m["shortfalls"] = tx.Shortfalls
	}
	if len(tx.DespawnFailures) > 0 {
		m["despawn_failures"] = tx.DespawnFailures
	}
	if tx.SpawnFailed {
		m["spawn_failed"] = true
	}
	return m
}

func putString(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
