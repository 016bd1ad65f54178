package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/eaidesk/gateway/internal/storage"
)

func TestMemoryStore_Token(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Token(ctx); !errors.Is(err, storage.ErrNoToken) {
		t.Fatalf("Token() on empty store error = %v, want ErrNoToken", err)
	}

	if err := store.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	got, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "tok-1" {
		t.Errorf("Token() = %q, want %q", got, "tok-1")
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := store.Token(ctx); !errors.Is(err, storage.ErrNoToken) {
		t.Errorf("Token() after Reset error = %v, want ErrNoToken", err)
	}
}
