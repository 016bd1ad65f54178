package memory

import (
	"context"
	"sync"

	"github.com/eaidesk/gateway/internal/storage"
)

// Store is an in-memory TokenStore.
type Store struct {
	mu    sync.RWMutex
	token string
}

var _ storage.TokenStore = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{}
}

func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", storage.ErrNoToken
	}
	return s.token, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

func (s *Store) Close() error {
	return nil
}
