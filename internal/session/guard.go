// Package session implements the re-login trigger fired when the server reports
// an invalid or expired session.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DefaultLoginLocation is where the guard sends the user when none is configured.
const DefaultLoginLocation = "/login"

// TokenResetter clears the stored session token.
type TokenResetter interface {
	Reset(ctx context.Context) error
}

// Navigator moves the host application to another location. Navigating to the
// login location replaces the running UI.
type Navigator interface {
	Redirect(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Redirect(ctx context.Context, location string) { f(ctx, location) }

// Guard fires the re-login side effect at most once for its lifetime. Only a
// new Guard (a fresh process after the redirect) can fire it again.
type Guard struct {
	tokens        TokenResetter
	nav           Navigator
	loginLocation string
	logger        *slog.Logger

	triggered atomic.Bool
}

// New creates a guard. tokens and nav may be nil, in which case that part of the
// side effect is skipped.
func New(tokens TokenResetter, nav Navigator, loginLocation string, logger *slog.Logger) *Guard {
	if loginLocation == "" {
		loginLocation = DefaultLoginLocation
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		tokens:        tokens,
		nav:           nav,
		loginLocation: loginLocation,
		logger:        logger,
	}
}

// ReLogin clears the session token and redirects to the login location. Only
// the first call performs anything; it reports whether this call did.
func (g *Guard) ReLogin(ctx context.Context) bool {
	if !g.triggered.CompareAndSwap(false, true) {
		return false
	}

	g.logger.Warn("session expired, redirecting to login",
		slog.String("location", g.loginLocation),
	)

	if g.tokens != nil {
		if err := g.tokens.Reset(ctx); err != nil {
			g.logger.Error("failed to reset session token", slog.String("error", err.Error()))
		}
	}
	if g.nav != nil {
		g.nav.Redirect(ctx, g.loginLocation)
	}
	return true
}

// Triggered reports whether ReLogin has fired.
func (g *Guard) Triggered() bool {
	return g.triggered.Load()
}

// LoginLocation returns the redirect target.
func (g *Guard) LoginLocation() string {
	return g.loginLocation
}
