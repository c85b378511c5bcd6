package state

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	s := newTestSQLiteStore(t)

	seen, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("expected empty set, got %d entries", len(seen))
	}
}

func TestSQLiteStore_SaveThenLoad(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Save(set("https://x/1", "https://x/2")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	seen, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 urls, got %d", len(seen))
	}
	if _, ok := seen["https://x/1"]; !ok {
		t.Error("missing https://x/1")
	}
}

func TestSQLiteStore_SaveMerges(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Save(set("https://x/1")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(set("https://x/1", "https://x/2")); err != nil {
		t.Fatalf("second Save with duplicate: %v", err)
	}

	seen, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 urls after merge, got %d", len(seen))
	}
}
