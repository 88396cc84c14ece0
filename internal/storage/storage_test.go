package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testStore creates a temporary SQLite-backed store for testing.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "tabtidy.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not found: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if count != len(migrations) {
		t.Errorf("expected %d migrations recorded, got %d", len(migrations), count)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(context.Background(), "k", json.RawMessage(`[1,2]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s2, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok, err := s2.Get(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if string(v) != `[1,2]` {
		t.Errorf("got %s", v)
	}
}

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := s.Set(ctx, "savedGroups", json.RawMessage(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "savedGroups", json.RawMessage(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "savedGroups")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(v) != `[{"id":"1"}]` {
		t.Errorf("value = %s, want overwritten value", v)
	}

	if err := s.Set(ctx, "bad", json.RawMessage(`{nope`)); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("Set invalid JSON err = %v, want ErrInvalidJSON", err)
	}

	s.Set(ctx, "settings", json.RawMessage(`{"a":1}`))
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("All returned %d keys, want 2", len(all))
	}
	if _, ok := all["bad"]; ok {
		t.Error("invalid value should not have been stored")
	}
}

func TestSQLiteStore(t *testing.T) {
	testStoreContract(t, testStore(t))
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := json.RawMessage(`"abc"`)
	s.Set(ctx, "k", buf)
	buf[1] = 'z'

	v, _, _ := s.Get(ctx, "k")
	if string(v) != `"abc"` {
		t.Errorf("stored value aliased caller buffer: %s", v)
	}
}
