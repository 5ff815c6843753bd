// Package session provides bearer-token session providers for the
// delivery client. The pipeline treats the credential as read-mostly
// shared state owned here; it only requests a refresh and re-reads.
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrRefreshUnavailable is returned when a provider has no way to obtain
// a fresh token.
var ErrRefreshUnavailable = errors.New("session refresh unavailable")

// Static serves a fixed token, typically from configuration. Refresh
// always fails: once a static token expires there is nothing to renew it
// with, and the caller surfaces Unauthenticated.
type Static struct {
	mu    sync.RWMutex
	token string
}

// NewStatic creates a provider around a fixed token. An empty token means
// no credential is available.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// CurrentToken returns the configured token.
func (s *Static) CurrentToken(_ context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Refresh fails for static tokens.
func (s *Static) Refresh(_ context.Context) (string, error) {
	return "", ErrRefreshUnavailable
}

// SetToken replaces the token. Embedding applications call this when the
// surrounding credential store rotates the bearer.
func (s *Static) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}
