package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// OAuth2 adapts an oauth2.TokenSource to the SessionProvider contract.
// CurrentToken serves the cached token while it is valid and otherwise
// fetches from the source, so the provider always has a usable credential
// to offer; Refresh unconditionally fetches a fresh token.
type OAuth2 struct {
	source  oauth2.TokenSource
	current *oauth2.Token
	mu      sync.Mutex
}

// NewOAuth2 wraps a token source. The source itself may cache and renew;
// this adapter only tracks the most recently issued token.
func NewOAuth2(source oauth2.TokenSource) *OAuth2 {
	return &OAuth2{source: source}
}

// CurrentToken returns the cached access token, fetching one from the
// source when nothing valid is cached. A source failure reports no token;
// the delivery client surfaces that as an authentication error.
func (o *OAuth2) CurrentToken(_ context.Context) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current.Valid() {
		return o.current.AccessToken, true
	}

	token, err := o.source.Token()
	if err != nil {
		return "", false
	}

	o.current = token
	return token.AccessToken, true
}

// Refresh fetches a token from the source and caches it.
func (o *OAuth2) Refresh(_ context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	token, err := o.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}

	o.current = token
	return token.AccessToken, nil
}
