package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"stable-thought/core"
)

func setupTestDB(t *testing.T) *sqliteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	defer store.Close()

	// sqlite creates the file lazily; force it with a write.
	if err := store.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("NewStore() did not create database file")
	}
}

func TestNewStore_TableCreated(t *testing.T) {
	store := setupTestDB(t)

	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&tableName)
	if err != nil {
		t.Fatalf("kv table not created: %v", err)
	}
}

func TestSetGet_Success(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	testData := `[{"id":"diary_1","date":"2026-10-19","content":"sunny"}]`
	if err := store.Set(ctx, "stable-thought:diary-entries", []byte(testData)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var data []byte
	err := store.db.QueryRow("SELECT value FROM kv WHERE key = ?", "stable-thought:diary-entries").Scan(&data)
	if err != nil {
		t.Fatalf("Failed to query value: %v", err)
	}
	if string(data) != testData {
		t.Errorf("Data mismatch: got %q, want %q", string(data), testData)
	}

	got, err := store.Get(ctx, "stable-thought:diary-entries")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != testData {
		t.Errorf("Get() mismatch: got %q, want %q", string(got), testData)
	}
}

func TestSet_Upserts(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("first"))
	if err := store.Set(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("second Set() failed: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM kv WHERE key = ?", "k").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one row after upsert, got %d", count)
	}

	got, _ := store.Get(ctx, "k")
	if string(got) != "second" {
		t.Errorf("Get() = %q, want %q", string(got), "second")
	}
}

func TestSet_EmptyValue(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.Set(ctx, "empty", nil); err != nil {
		t.Fatalf("Set() failed for empty value: %v", err)
	}
	got, err := store.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty value, got %q", string(got))
	}
}

func TestGet_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Get(context.Background(), "nonexistent")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"))
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if err := first.Set(ctx, "stable-thought:theme", []byte(`"night"`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	first.Close()

	second, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "stable-thought:theme")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `"night"` {
		t.Errorf("Get() = %q, want %q", string(got), `"night"`)
	}
}

func TestConcurrentSet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			key := "key-" + string(rune('a'+index))
			if err := store.Set(ctx, key, []byte("v")); err != nil {
				t.Errorf("Concurrent Set() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 10 {
		t.Errorf("expected 10 rows, got %d", count)
	}
}
