// Package session holds the bearer token and username of the signed-in profile.
//
// A [Manager] is created once by the top-level runner and injected into every component that issues
// authenticated requests. It caches the current [models.Session] in memory and persists it through a [Store].
// Authenticated HTTP clients read the token at call time through [Manager.TokenSource], so a session cleared
// mid-flight makes the next request unauthenticated.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/oauth2"
)

// Event kinds recorded by stores that keep an audit trail.
const (
	EventSignIn   = "sign_in"
	EventSignOut  = "sign_out"
	EventRevoked  = "revoked"
	EventImported = "imported"
)

// Store persists a single session.
type Store interface {
	// Load returns the stored session, or nil when none is stored.
	Load(ctx context.Context) (*models.Session, error)
	// Save replaces the stored session.
	Save(ctx context.Context, s *models.Session) error
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// EventRecorder is implemented by stores that keep a history of sign-in and sign-out events.
type EventRecorder interface {
	RecordEvent(ctx context.Context, username, kind, reason string) error
}

// Manager owns the current session.
type Manager struct {
	mu      sync.RWMutex
	current *models.Session
	store   Store
	logger  *log.Logger
	now     func() time.Time
}

// NewManager creates a Manager backed by store. A nil store keeps the session in memory only.
func NewManager(store Store, logger *log.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Restore loads a previously persisted session into memory.
func (m *Manager) Restore(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if s != nil {
		m.logger.Debug("session restored", "username", s.Username)
	}
	return nil
}

// SetSession persists username and token as the current session.
//
// The token is opaque. When it happens to be a JWT its expiry is recorded for display only.
func (m *Manager) SetSession(ctx context.Context, username, token string) error {
	return m.set(ctx, username, token, EventSignIn)
}

// ImportSession stores a token obtained outside the login flow, such as from a browser request.
//
// When username is empty it is recovered from the token's claims.
func (m *Manager) ImportSession(ctx context.Context, username, token string) error {
	if username == "" {
		claims, err := ParseClaims(token)
		if err != nil || claims.User() == "" {
			return fmt.Errorf("%w: username not given and not present in token", shared.ErrMissingArgument)
		}
		username = claims.User()
	}
	return m.set(ctx, username, token, EventImported)
}

func (m *Manager) set(ctx context.Context, username, token, kind string) error {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" {
		return fmt.Errorf("%w: username and token are required", shared.ErrInvalidInput)
	}

	s := &models.Session{
		ID:        shared.GenerateID(),
		Username:  username,
		Token:     token,
		CreatedAt: m.now().UTC(),
	}
	if claims, err := ParseClaims(token); err == nil {
		s.ExpiresAt = claims.Expiry()
	}

	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.record(ctx, username, kind, "")
	m.logger.Info("session set", "username", username)
	return nil
}

// Token returns the current bearer token.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return m.current.Token, true
}

// Username returns the current username.
func (m *Manager) Username() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return m.current.Username, true
}

// Session returns a copy of the current session, or nil when signed out.
func (m *Manager) Session() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// ClearSession signs out.
func (m *Manager) ClearSession(ctx context.Context) error {
	return m.clear(ctx, EventSignOut, "")
}

// Revoke signs out because the server rejected the credential.
func (m *Manager) Revoke(ctx context.Context, reason string) error {
	return m.clear(ctx, EventRevoked, reason)
}

func (m *Manager) clear(ctx context.Context, kind, reason string) error {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if prev != nil {
		m.record(ctx, prev.Username, kind, reason)
		m.logger.Info("session cleared", "username", prev.Username, "kind", kind)
	}
	return nil
}

func (m *Manager) record(ctx context.Context, username, kind, reason string) {
	rec, ok := m.store.(EventRecorder)
	if !ok {
		return
	}
	if err := rec.RecordEvent(ctx, username, kind, reason); err != nil {
		m.logger.Warn("failed to record session event", "kind", kind, "error", err)
	}
}

// TokenSource exposes the current session as an [oauth2.TokenSource].
//
// Each call reads the session anew; no token is cached.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{m}
}

type tokenSource struct{ m *Manager }

func (ts tokenSource) Token() (*oauth2.Token, error) {
	token, ok := ts.m.Token()
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
