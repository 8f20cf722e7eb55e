package store

import (
	"context"
	"fmt"
)

// BeginRun records a new session. Writing the same run ID twice is a no-op.
func (s *Store) BeginRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, catalog_digest, engine_version, journal_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Label,
		run.CatalogDigest,
		run.EngineVersion,
		run.JournalVersion,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteEvent appends a dispatched event. The run must exist.
// Duplicate (run_id, seq) writes are silently ignored.
func (s *Store) WriteEvent(ctx context.Context, ev EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, seq, type, machine, kind, handle, recipe, enabled, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		ev.RunID,
		ev.Seq,
		ev.Type,
		ev.Machine,
		string(ev.Kind),
		string(ev.Handle),
		ev.Recipe,
		ev.Enabled,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteTransaction appends a recipe execution. The event at (RunID, Seq)
// must already be written. Duplicate IDs are silently ignored.
func (s *Store) WriteTransaction(ctx context.Context, tx TransactionRecord) error {
	consumed, err := marshalHandles(tx.Consumed)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	shortfalls, err := marshalKinds(tx.Shortfalls)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	failures, err := marshalHandles(tx.DespawnFailures)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, run_id, seq, machine, recipe, consumed, shortfalls, despawn_failures, output, produced, spawn_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		tx.ID,
		tx.RunID,
		tx.Seq,
		tx.Machine,
		tx.Recipe,
		consumed,
		shortfalls,
		failures,
		string(tx.Output),
		string(tx.Produced),
		tx.SpawnError,
	)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	return nil
}
