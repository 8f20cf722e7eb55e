// Package store is the SQLite journal of a shapeforge session.
//
// The journal is append-only and purely an audit trail: it records every
// dispatched event and every recipe transaction with its logical seq, and is
// never read back to restore inventories or world state.
//
// Tables:
//   - runs: one row per engine session (catalog digest, versions)
//   - events: one row per dispatched event, keyed by (run_id, seq)
//   - transactions: one row per recipe execution, content-addressed by ID
//
// All ordering uses the seq column (logical clock), never wall time. Reads
// always ORDER BY seq ASC, id ASC COLLATE BINARY so traces are reproducible.
//
// Database configuration:
//   - WAL mode: concurrent reads while the engine writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
