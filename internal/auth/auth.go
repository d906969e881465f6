// Package auth acquires and revokes the access token used for API calls.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoCredential means no token could be obtained without user interaction.
var ErrNoCredential = errors.New("no credential available")

// Credential is an access token. It is only ever held in memory by callers.
type Credential struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// Valid reports whether the token is present and not known to be expired.
func (c Credential) Valid() bool {
	if c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || time.Now().Before(c.Expiry)
}

func fromToken(t *oauth2.Token) Credential {
	return Credential{AccessToken: t.AccessToken, TokenType: t.Type(), Expiry: t.Expiry}
}

// Provider hands out credentials.
type Provider interface {
	// AcquireInteractive may involve the user (a browser consent page).
	AcquireInteractive(ctx context.Context) (Credential, error)
	// AcquireSilent never involves the user and fails with ErrNoCredential
	// when nothing usable is cached.
	AcquireSilent(ctx context.Context) (Credential, error)
	// Invalidate revokes cred and forgets any cached copy.
	Invalidate(ctx context.Context, cred Credential) error
}

// TokenCache persists OAuth tokens between runs. LoadToken fails when there
// is nothing cached.
type TokenCache interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(*oauth2.Token) error
	DeleteToken() error
}

// StaticProvider serves a fixed token, typically from YTSWEEP_ACCESS_TOKEN.
type StaticProvider struct {
	Token string
}

func (p StaticProvider) AcquireInteractive(ctx context.Context) (Credential, error) {
	return p.AcquireSilent(ctx)
}

func (p StaticProvider) AcquireSilent(context.Context) (Credential, error) {
	if p.Token == "" {
		return Credential{}, ErrNoCredential
	}
	return Credential{AccessToken: p.Token, TokenType: "Bearer"}, nil
}

// Invalidate does nothing: a static token is owned by whoever configured it.
func (p StaticProvider) Invalidate(context.Context, Credential) error { return nil }

// MemoryCache is a TokenCache that lives as long as the process.
type MemoryCache struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

func (m *MemoryCache) LoadToken() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, ErrNoCredential
	}
	t := *m.tok
	return &t, nil
}

func (m *MemoryCache) SaveToken(t *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.tok = &c
	return nil
}

func (m *MemoryCache) DeleteToken() error {
	m.mu.Lock()
	m.tok = nil
	m.mu.Unlock()
	return nil
}
