package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/shapeforge/internal/ir"
)

// createTestStore opens a journal in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun begins a run with fixed metadata.
func createTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.BeginRun(context.Background(), RunRecord{
		ID:             id,
		Label:          "test",
		CatalogDigest:  "digest-1",
		EngineVersion:  ir.EngineVersion,
		JournalVersion: ir.JournalVersion,
	})
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
}
