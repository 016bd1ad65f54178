package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/eaidesk/gateway/internal/storage"
)

func TestSQLiteStore_Token(t *testing.T) {
	// Use in-memory SQLite with shared cache for testing
	store, err := New("file:sessiondb1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Token(ctx); !errors.Is(err, storage.ErrNoToken) {
		t.Fatalf("Token() on empty store error = %v, want ErrNoToken", err)
	}

	if err := store.SetToken(ctx, "first"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := store.SetToken(ctx, "second"); err != nil {
		t.Fatalf("SetToken() overwrite error = %v", err)
	}

	got, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Token() = %q, want %q", got, "second")
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := store.Token(ctx); !errors.Is(err, storage.ErrNoToken) {
		t.Errorf("Token() after Reset error = %v, want ErrNoToken", err)
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.SetToken(ctx, "kept"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	store.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "kept" {
		t.Errorf("Token() = %q, want %q", got, "kept")
	}
}
