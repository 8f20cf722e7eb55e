package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

var (
	// ErrNoRuns is returned by LatestRun on an empty journal.
	ErrNoRuns = errors.New("journal has no runs")

	// ErrRunNotFound is returned by ReadRun for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
)

// ReadRuns returns every run in insertion order.
func (s *Store) ReadRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, catalog_digest, engine_version, journal_version
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Label, &r.CatalogDigest, &r.EngineVersion, &r.JournalVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently begun run.
func (s *Store) LatestRun(ctx context.Context) (RunRecord, error) {
	var r RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, catalog_digest, engine_version, journal_version
		FROM runs
		ORDER BY rowid DESC
		LIMIT 1
	`).Scan(&r.ID, &r.Label, &r.CatalogDigest, &r.EngineVersion, &r.JournalVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNoRuns
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("query latest run: %w", err)
	}
	return r, nil
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, runID string) (RunRecord, error) {
	var r RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, catalog_digest, engine_version, journal_version
		FROM runs
		WHERE id = ?
	`, runID).Scan(&r.ID, &r.Label, &r.CatalogDigest, &r.EngineVersion, &r.JournalVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("query run: %w", err)
	}
	return r, nil
}

// ReadEvents returns a run's events ordered by seq.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, type, machine, kind, handle, recipe, enabled, error
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var (
			ev           EventRecord
			kind, handle string
		)
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Type, &ev.Machine, &kind, &handle, &ev.Recipe, &ev.Enabled, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = ir.ShapeKind(kind)
		ev.Handle = ir.Handle(handle)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadTransactions returns a run's transactions ordered by seq, then ID.
func (s *Store) ReadTransactions(ctx context.Context, runID string) ([]TransactionRecord, error) {
	return s.queryTransactions(ctx, `
		SELECT id, run_id, seq, machine, recipe, consumed, shortfalls, despawn_failures, output, produced, spawn_error
		FROM transactions
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, runID)
}

// ReadMachineTransactions returns one machine's transactions in a run.
func (s *Store) ReadMachineTransactions(ctx context.Context, runID, machine string) ([]TransactionRecord, error) {
	return s.queryTransactions(ctx, `
		SELECT id, run_id, seq, machine, recipe, consumed, shortfalls, despawn_failures, output, produced, spawn_error
		FROM transactions
		WHERE run_id = ? AND machine = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, runID, machine)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []TransactionRecord{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (TransactionRecord, error) {
	var (
		tx                             TransactionRecord
		consumed, shortfalls, failures string
		output, produced               string
	)
	err := rows.Scan(
		&tx.ID, &tx.RunID, &tx.Seq, &tx.Machine, &tx.Recipe,
		&consumed, &shortfalls, &failures,
		&output, &produced, &tx.SpawnError,
	)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("scan transaction: %w", err)
	}

	if tx.Consumed, err = unmarshalHandles(consumed); err != nil {
		return TransactionRecord{}, err
	}
	if tx.Shortfalls, err = unmarshalKinds(shortfalls); err != nil {
		return TransactionRecord{}, err
	}
	if tx.DespawnFailures, err = unmarshalHandles(failures); err != nil {
		return TransactionRecord{}, err
	}
	tx.Output = ir.ShapeKind(output)
	tx.Produced = ir.Handle(produced)
	return tx, nil
}
