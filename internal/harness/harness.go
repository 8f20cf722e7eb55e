package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/store"
	"github.com/roach88/shapeforge/internal/testutil"
	"github.com/roach88/shapeforge/internal/world"
)

// Harness holds the live objects of one scenario run.
type Harness struct {
	catalog *catalog.Catalog
	world   *world.World
	sim     *world.Sim
	engine  *engine.Engine
	store   *store.Store
	runID   string
	logger  *slog.Logger

	// aliases maps scenario ids to placed handles.
	aliases map[string]placed

	// produced lists kinds spawned by machines and manual spawns, in order.
	produced []string
}

type placed struct {
	handle ir.Handle
	kind   ir.ShapeKind
}

// Run executes a scenario in a fresh world with an in-memory journal.
//
// Only setup failures (catalog, journal) are returned as errors. Failed step
// expectations and assertions are recorded in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := loadCatalog(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()

	sim := world.NewSim(cat, world.WithHandleGenerator(testutil.NewSequentialHandles("h")))
	w, err := world.Build(cat, world.Level{
		StrictCounts: scenario.StrictCounts,
		Duplicates:   scenario.Duplicates,
		Machines:     scenario.Machines,
	}, sim, world.WithLogger(logger))

	if scenario.ExpectBuildError != "" {
		switch {
		case err == nil:
			result.AddError(fmt.Sprintf("expected build error %s, world built", scenario.ExpectBuildError))
		case !buildErrorMatches(scenario.ExpectBuildError, err):
			result.AddError(fmt.Sprintf("expected build error %s, got: %v", scenario.ExpectBuildError, err))
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	runID := "scenario/" + scenario.Name
	if err := st.BeginRun(ctx, store.RunRecord{
		ID:             runID,
		Label:          scenario.Name,
		CatalogDigest:  cat.Digest(),
		EngineVersion:  ir.EngineVersion,
		JournalVersion: ir.JournalVersion,
	}); err != nil {
		return nil, err
	}

	h := &Harness{
		catalog: cat,
		world:   w,
		sim:     sim,
		store:   st,
		runID:   runID,
		logger:  logger,
		aliases: make(map[string]placed),
		engine: engine.New(w,
			engine.WithClock(testutil.NewDeterministicClock()),
			engine.WithJournal(st, runID),
			engine.WithLogger(logger),
		),
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}

	return result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(path string) (*Scenario, *Result, error) {
	s, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := Run(s)
	return s, r, err
}

func loadCatalog(s *Scenario) (*catalog.Catalog, error) {
	if s.Tables != nil {
		cat, err := catalog.FromTables(*s.Tables)
		if err != nil {
			return nil, fmt.Errorf("inline catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// executeStep runs one step. Returned errors abort the scenario; failed
// expectations are added to result.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	if step.Place != nil {
		if _, dup := h.aliases[step.Place.ID]; dup {
			return fmt.Errorf("steps[%d]: id %q placed twice", i, step.Place.ID)
		}
		handle, err := h.sim.Place(ctx, ir.Kind(step.Place.Kind), ir.Location{})
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		kind := ir.Kind(step.Place.Kind)
		h.aliases[step.Place.ID] = placed{handle: handle, kind: kind}
		result.Trace = append(result.Trace, TraceEvent{
			Type:   "place",
			ID:     step.Place.ID,
			Kind:   string(kind),
			Handle: string(handle),
		})
		return nil
	}

	ev := h.toEvent(step)
	res, err := h.engine.Dispatch(ctx, ev)

	te := TraceEvent{
		Seq:      res.Seq,
		Type:     ev.Type.String(),
		Machine:  ev.Machine,
		Kind:     string(ev.Kind),
		Handle:   string(ev.Handle),
		Recipe:   ev.Recipe,
		Produced: string(res.Produced),
		Selected: res.Selected,
		Error:    ErrorCode(err),
	}
	if step.Enter != nil || step.Leave != nil {
		te.ID = proximityOf(step).ID
	}
	if ev.Type == engine.EventToggle {
		enabled := ev.Enabled
		te.Enabled = &enabled
	}
	if ev.Type == engine.EventShapeLeft && err == nil {
		removed := res.Removed
		te.Removed = &removed
	}
	for _, tx := range res.Transactions {
		te.Transactions = append(te.Transactions, traceTransaction(tx))
		if tx.Produced != "" {
			h.produced = append(h.produced, string(tx.Output))
		}
	}
	if res.Produced != "" {
		if inst, lerr := h.sim.Lookup(res.Produced); lerr == nil {
			h.produced = append(h.produced, string(inst.Kind))
		}
	}
	result.Trace = append(result.Trace, te)

	if got := ErrorCode(err); got != step.ExpectError {
		switch {
		case step.ExpectError == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, te.Type, err))
		case got == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got success", i, te.Type, step.ExpectError))
		default:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s (%v)", i, te.Type, step.ExpectError, got, err))
		}
	}
	if step.ExpectTransactions != nil && len(res.Transactions) != *step.ExpectTransactions {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %d transactions, got %d",
			i, te.Type, *step.ExpectTransactions, len(res.Transactions)))
	}

	h.logger.Debug("step executed", "step", i, "type", te.Type, "seq", res.Seq, "error", te.Error)
	return nil
}

func (h *Harness) toEvent(step Step) engine.Event {
	switch {
	case step.Enter != nil, step.Leave != nil:
		p := proximityOf(step)
		handle := ir.Handle(p.ID)
		var kind ir.ShapeKind
		if pl, ok := h.aliases[p.ID]; ok {
			handle = pl.handle
			kind = pl.kind
		}
		if p.Kind != "" {
			kind = ir.Kind(p.Kind)
		}
		if step.Enter != nil {
			return engine.ShapeEntered(p.Machine, kind, handle)
		}
		return engine.ShapeLeft(p.Machine, kind, handle)
	case step.Select != "":
		return engine.Event{Type: engine.EventSelect, Machine: step.Select}
	case step.Clear:
		return engine.Event{Type: engine.EventClearSelection}
	case step.Toggle != nil:
		return engine.Event{Type: engine.EventToggle, Recipe: step.Toggle.Recipe, Enabled: step.Toggle.Enabled}
	case step.Spawn != nil:
		return engine.Event{Type: engine.EventManualSpawn, Recipe: step.Spawn.Recipe}
	default:
		return engine.Event{Type: engine.EventDescribe}
	}
}

func proximityOf(step Step) *ProximityStep {
	if step.Enter != nil {
		return step.Enter
	}
	return step.Leave
}
