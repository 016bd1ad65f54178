// Package storage defines the session store the gateway reads tokens from.
package storage

import (
	"context"
	"errors"
)

// ErrNoToken is returned when no session token is stored.
var ErrNoToken = errors.New("no session token")

// TokenStore holds the current session token. The gateway reads it on every
// request and the session guard resets it on expiry.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Reset(ctx context.Context) error
	Close() error
}
