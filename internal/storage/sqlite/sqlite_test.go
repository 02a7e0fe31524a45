package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/carttrack/internal/storage"
	"github.com/mmynk/carttrack/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.KV {
		return newTestStore(t)
	})
}

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "carttrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	ctx := context.Background()

	t.Run("New creates nested directories", func(t *testing.T) {
		dbPath := filepath.Join(tempDir, "nested", "deeper", "carts.db")
		store, err := New(dbPath)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("Expected database file to exist: %v", err)
		}
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("Values survive reopen", func(t *testing.T) {
		dbPath := filepath.Join(tempDir, "reopen.db")

		store, err := New(dbPath)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := store.Put(ctx, "sessions", []byte(`[{"id":"a"}]`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := store.Put(ctx, "sessions", []byte(`[{"id":"b"}]`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		store.Close()

		reopened, err := New(dbPath)
		if err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}
		defer reopened.Close()

		e, err := reopened.Get(ctx, "sessions")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(e.Value) != `[{"id":"b"}]` {
			t.Errorf("Value mismatch: got %s", e.Value)
		}
		if e.Version != 2 {
			t.Errorf("Version mismatch: got %d, want 2", e.Version)
		}
	})
}
