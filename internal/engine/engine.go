package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/shapeforge/internal/front"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
	"github.com/roach88/shapeforge/internal/store"
)

// Journal receives an audit record of every dispatched event and every
// transaction it triggered. Implemented by *store.Store.
type Journal interface {
	WriteEvent(ctx context.Context, ev store.EventRecord) error
	WriteTransaction(ctx context.Context, tx store.TransactionRecord) error
}

// Engine is the single-writer event dispatcher for a world of machines.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Dispatch(): must not run concurrently with Run or another Dispatch
type Engine struct {
	reg     front.Registry
	clock   Sequencer
	queue   *eventQueue
	session *front.Session
	journal Journal
	runID   string
	log     *slog.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces the default logical clock.
func WithClock(c Sequencer) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithJournal records every event under runID. The run itself must already
// be registered with the journal (store.BeginRun).
func WithJournal(j Journal, runID string) EngineOption {
	return func(e *Engine) {
		e.journal = j
		e.runID = runID
	}
}

// WithSession sets the default session used by events without one.
func WithSession(s *front.Session) EngineOption {
	return func(e *Engine) {
		e.session = s
	}
}

// WithLogger sets the logger used for selection commands.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an engine over a machine registry (usually *world.World).
func New(reg front.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:     reg,
		clock:   NewClock(),
		queue:   newEventQueue(),
		session: front.NewSession(),
		log:     slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the default session.
func (e *Engine) Session() *front.Session {
	return e.session
}

// RunID returns the journal run ID, or "" when no journal is configured.
func (e *Engine) RunID() string {
	return e.runID
}

// Enqueue submits an event for processing by the Run loop.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// QueueLen returns the number of events waiting for Run.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run drains the event queue until ctx is cancelled or Stop is called.
// Must be called from exactly one goroutine.
//
// A failed event is logged with its full context and processing continues.
// Events still queued when Stop is called are processed before Run returns.
// Events still queued when ctx is cancelled are not dispatched; their Reply
// receives a STOPPED error.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "run_id", e.runID)
	defer e.doneOnce.Do(func() { close(e.done) })

	for {
		if ctx.Err() != nil {
			return e.cancelled(ctx)
		}

		ev, ok := e.queue.TryDequeue()
		if ok {
			res, err := e.Dispatch(ctx, ev)
			if err != nil {
				logEventError(ev, res.Seq, err)
			}
			if ev.Reply != nil {
				select {
				case ev.Reply <- res:
				case <-ctx.Done():
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return e.cancelled(ctx)

		case <-e.queue.Wait():
			if e.queue.Drained() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// cancelled closes the queue and answers every event left in it.
func (e *Engine) cancelled(ctx context.Context) error {
	slog.Info("engine stopping: context cancelled")
	e.queue.Close()

	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return ctx.Err()
		}
		if ev.Reply == nil {
			continue
		}
		res := Result{
			Type: ev.Type,
			Err: &RuntimeError{
				Code:    ErrCodeStopped,
				Message: "engine stopped before the event was dispatched",
				Machine: ev.Machine,
				Err:     ErrStopped,
			},
		}
		select {
		case ev.Reply <- res:
		default:
			slog.Warn("reply channel full, dropping stop notice", "event_type", ev.Type.String())
		}
	}
}

// Stop closes the queue. Run returns once the remaining events are processed.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Dispatch stamps ev with the next seq, handles it to completion and
// journals the outcome. The Result is populated even when an error is
// returned; domain failures (unknown kind, no selection, ...) leave the
// world unchanged.
func (e *Engine) Dispatch(ctx context.Context, ev Event) (Result, error) {
	seq := e.clock.Next()

	res, err := e.handle(ctx, seq, ev)
	res.Seq = seq
	res.Type = ev.Type
	res.Err = err

	e.record(ctx, seq, ev, res, err)
	return res, err
}

func (e *Engine) handle(ctx context.Context, seq int64, ev Event) (Result, error) {
	var res Result

	sess := ev.Session
	if sess == nil {
		sess = e.session
	}
	fr := front.New(e.reg, sess, e.log)

	var err error
	switch ev.Type {
	case EventShapeEntered, EventShapeLeft:
		var m *machine.Machine
		m, err = e.proximityTarget(seq, ev)
		if err != nil {
			break
		}
		if ev.Type == EventShapeEntered {
			res.Transactions, err = m.OnShapeEntered(ctx, ev.Kind, ev.Handle)
		} else {
			res.Removed, err = m.OnShapeLeft(ctx, ev.Kind, ev.Handle)
		}

	case EventSelect:
		err = fr.Select(ev.Machine)

	case EventClearSelection:
		fr.Clear()

	case EventToggle:
		res.Transactions, err = fr.Toggle(ctx, ev.Recipe, ev.Enabled)

	case EventManualSpawn:
		res.Produced, err = fr.ManualSpawn(ctx, ev.Recipe)

	case EventDescribe:
		res.Machines = fr.MachineNames()
		if name, ok := fr.Selected(); ok {
			res.Entries, err = fr.RecipeEntries(name)
		}

	default:
		err = &RuntimeError{
			Code:    ErrCodeUnknownEvent,
			Message: "unknown event type " + ev.Type.String(),
			Seq:     seq,
		}
	}

	res.Selected, _ = fr.Selected()
	return res, err
}

func (e *Engine) proximityTarget(seq int64, ev Event) (*machine.Machine, error) {
	if ev.Handle == "" || ev.Kind == "" {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidEvent,
			Message: ev.Type.String() + " requires kind and handle",
			Seq:     seq,
			Machine: ev.Machine,
		}
	}
	m, ok := e.reg.Machine(ev.Machine)
	if !ok {
		return nil, &RuntimeError{
			Code:    ErrCodeUnknownMachine,
			Message: "proximity event for unknown machine",
			Seq:     seq,
			Machine: ev.Machine,
			Err:     front.ErrUnknownMachine,
		}
	}
	return m, nil
}

// record appends the event and its transactions to the journal.
// Failures are logged; the journal never fails a dispatch.
func (e *Engine) record(ctx context.Context, seq int64, ev Event, res Result, dispatchErr error) {
	if e.journal == nil {
		return
	}

	rec := store.EventRecord{
		RunID:   e.runID,
		Seq:     seq,
		Type:    ev.Type.String(),
		Machine: ev.Machine,
		Kind:    ev.Kind,
		Handle:  ev.Handle,
		Recipe:  ev.Recipe,
		Enabled: ev.Enabled,
	}
	if ev.Type == EventToggle || ev.Type == EventManualSpawn {
		rec.Machine = res.Selected
	}
	if dispatchErr != nil {
		rec.Error = dispatchErr.Error()
	}
	if err := e.journal.WriteEvent(ctx, rec); err != nil {
		slog.Error("journal write failed", "error", err, "seq", seq, "event_type", rec.Type)
		return
	}

	for _, tx := range res.Transactions {
		txr, err := transactionRecord(e.runID, seq, tx)
		if err != nil {
			slog.Error("transaction id failed", "error", err, "seq", seq, "recipe", tx.Recipe)
			continue
		}
		if err := e.journal.WriteTransaction(ctx, txr); err != nil {
			slog.Error("journal write failed", "error", err, "seq", seq, "transaction_id", txr.ID)
		}
	}
}

func transactionRecord(runID string, seq int64, tx machine.Transaction) (store.TransactionRecord, error) {
	id, err := ir.TransactionID(runID, tx.Machine, tx.Recipe, tx.Consumed, seq)
	if err != nil {
		return store.TransactionRecord{}, err
	}
	rec := store.TransactionRecord{
		ID:              id,
		RunID:           runID,
		Seq:             seq,
		Machine:         tx.Machine,
		Recipe:          tx.Recipe,
		Consumed:        tx.Consumed,
		Shortfalls:      tx.Shortfalls,
		DespawnFailures: tx.DespawnFailures,
		Output:          tx.Output,
		Produced:        tx.Produced,
	}
	if tx.SpawnErr != nil {
		rec.SpawnError = tx.SpawnErr.Error()
	}
	return rec, nil
}

// logEventError logs a failed event with enough context to reproduce it.
func logEventError(ev Event, seq int64, err error) {
	switch ev.Type {
	case EventShapeEntered, EventShapeLeft:
		slog.Error("proximity event failed",
			"error", err,
			"seq", seq,
			"event_type", ev.Type.String(),
			"machine", ev.Machine,
			"shape", ev.Kind,
			"handle", ev.Handle,
		)
	default:
		slog.Error("command failed",
			"error", err,
			"seq", seq,
			"event_type", ev.Type.String(),
			"machine", ev.Machine,
			"recipe", ev.Recipe,
		)
	}
}
