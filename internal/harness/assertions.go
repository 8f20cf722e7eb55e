package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/shapeforge/internal/front"
	"github.com/roach88/shapeforge/internal/ir"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluateAssertions returns one message per failed assertion.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) []string {
	var failures []string
	for i, a := range assertions {
		if err := h.evaluate(ctx, a, result); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func (h *Harness) evaluate(ctx context.Context, a Assertion, result *Result) error {
	switch a.Type {
	case AssertCount:
		return h.assertCount(a)
	case AssertLive:
		if got := h.sim.LiveCount(ir.Kind(a.Kind)); got != *a.Count {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%d live %s", *a.Count, a.Kind),
				Actual:   fmt.Sprintf("%d", got)}
		}
	case AssertSpawned:
		got := h.produced
		if got == nil {
			got = []string{}
		}
		if !reflect.DeepEqual(got, a.Kinds) {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%v", a.Kinds),
				Actual:   fmt.Sprintf("%v", got)}
		}
	case AssertTransactions:
		got := countTransactions(result.Trace, a.Machine, a.Recipe)
		if got != *a.Count {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%d transactions (machine=%q recipe=%q)", *a.Count, a.Machine, a.Recipe),
				Actual:   fmt.Sprintf("%d", got)}
		}
	case AssertEnabled:
		return h.assertEnabled(a)
	case AssertSelected:
		got, _ := h.selected()
		if got != *a.Selected {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%q", *a.Selected),
				Actual:   fmt.Sprintf("%q", got)}
		}
	case AssertEffects:
		got := []string{}
		for _, e := range h.sim.Effects() {
			got = append(got, e.Effect)
		}
		if !reflect.DeepEqual(got, a.Effects) {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%v", a.Effects),
				Actual:   fmt.Sprintf("%v", got)}
		}
	case AssertJournal:
		return h.assertJournal(ctx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func (h *Harness) assertCount(a Assertion) error {
	m, ok := h.world.Machine(a.Machine)
	if !ok {
		return fmt.Errorf("count: unknown machine %q", a.Machine)
	}
	got, err := m.Count(ir.Kind(a.Kind))
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if got != *a.Count {
		return &AssertionError{Type: a.Type,
			Expected: fmt.Sprintf("%s has %d %s", a.Machine, *a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d", got)}
	}
	return nil
}

func (h *Harness) assertEnabled(a Assertion) error {
	m, ok := h.world.Machine(a.Machine)
	if !ok {
		return fmt.Errorf("enabled: unknown machine %q", a.Machine)
	}
	got, err := m.Enabled(a.Recipe)
	if err != nil {
		return fmt.Errorf("enabled: %w", err)
	}
	if got != *a.Enabled {
		return &AssertionError{Type: a.Type,
			Expected: fmt.Sprintf("%s/%s enabled=%t", a.Machine, a.Recipe, *a.Enabled),
			Actual:   fmt.Sprintf("enabled=%t", got)}
	}
	return nil
}

func (h *Harness) assertJournal(ctx context.Context, a Assertion) error {
	if a.Events != nil {
		events, err := h.store.ReadEvents(ctx, h.runID)
		if err != nil {
			return err
		}
		if len(events) != *a.Events {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%d journal events", *a.Events),
				Actual:   fmt.Sprintf("%d", len(events))}
		}
	}
	if a.Transactions != nil {
		txs, err := h.store.ReadTransactions(ctx, h.runID)
		if err != nil {
			return err
		}
		if len(txs) != *a.Transactions {
			return &AssertionError{Type: a.Type,
				Expected: fmt.Sprintf("%d journal transactions", *a.Transactions),
				Actual:   fmt.Sprintf("%d", len(txs))}
		}
	}
	return nil
}

func (h *Harness) selected() (string, bool) {
	return front.New(h.world, h.engine.Session(), h.logger).Selected()
}

// countTransactions counts trace transactions, optionally filtered by
// machine and recipe.
func countTransactions(trace []TraceEvent, machine, recipe string) int {
	n := 0
	for _, ev := range trace {
		for _, tx := range ev.Transactions {
			if machine != "" && tx.Machine != machine {
				continue
			}
			if recipe != "" && tx.Recipe != recipe {
				continue
			}
			n++
		}
	}
	return n
}
