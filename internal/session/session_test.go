package session

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewManager(store, shared.NewLogger(&bytes.Buffer{})), store
}

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Save(context.Context, *models.Session) error {
	return errors.New("disk full")
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("values are absent before SetSession", func(t *testing.T) {
		m, _ := newTestManager(t)

		if _, ok := m.Token(); ok {
			t.Error("expected no token")
		}
		if _, ok := m.Username(); ok {
			t.Error("expected no username")
		}
		if m.Session() != nil {
			t.Error("expected nil session")
		}
	})

	t.Run("SetSession stores both values", func(t *testing.T) {
		m, store := newTestManager(t)

		if err := m.SetSession(ctx, "alice", "opaque-token"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if tok, ok := m.Token(); !ok || tok != "opaque-token" {
			t.Errorf("Token() = %q, %v", tok, ok)
		}
		if u, ok := m.Username(); !ok || u != "alice" {
			t.Errorf("Username() = %q, %v", u, ok)
		}

		stored, _ := store.Load(ctx)
		if stored == nil || stored.Token != "opaque-token" {
			t.Errorf("session not persisted: %+v", stored)
		}
		if stored.ExpiresAt != nil {
			t.Error("opaque token should have no expiry")
		}

		events := store.Events()
		if len(events) != 1 || events[0].Kind != EventSignIn {
			t.Errorf("expected one sign-in event, got %+v", events)
		}
	})

	t.Run("SetSession rejects empty values", func(t *testing.T) {
		m, _ := newTestManager(t)

		if err := m.SetSession(ctx, "", "tok"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := m.SetSession(ctx, "alice", " "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("failed save leaves session unchanged", func(t *testing.T) {
		m := NewManager(&failingStore{}, shared.NewLogger(&bytes.Buffer{}))

		if err := m.SetSession(ctx, "alice", "tok"); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := m.Token(); ok {
			t.Error("token should not be set after failed save")
		}
	})

	t.Run("JWT expiry is recorded", func(t *testing.T) {
		m, _ := newTestManager(t)
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token := signedToken(t, Claims{
			Username:         "alice",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		})

		if err := m.SetSession(ctx, "alice", token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s := m.Session()
		if s.ExpiresAt == nil || !s.ExpiresAt.Equal(exp) {
			t.Errorf("expected expiry %v, got %v", exp, s.ExpiresAt)
		}
	})

	t.Run("ClearSession removes both values", func(t *testing.T) {
		m, store := newTestManager(t)
		_ = m.SetSession(ctx, "alice", "tok")

		if err := m.ClearSession(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := m.Token(); ok {
			t.Error("token should be cleared")
		}
		if _, ok := m.Username(); ok {
			t.Error("username should be cleared")
		}
		if s, _ := store.Load(ctx); s != nil {
			t.Error("stored session should be cleared")
		}

		events := store.Events()
		if events[len(events)-1].Kind != EventSignOut {
			t.Errorf("expected sign-out event, got %+v", events)
		}
	})

	t.Run("Revoke records reason", func(t *testing.T) {
		m, store := newTestManager(t)
		_ = m.SetSession(ctx, "alice", "tok")

		if err := m.Revoke(ctx, "token rejected"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		last := store.Events()[len(store.Events())-1]
		if last.Kind != EventRevoked || last.Reason != "token rejected" {
			t.Errorf("unexpected event %+v", last)
		}
	})

	t.Run("ClearSession when signed out is a no-op", func(t *testing.T) {
		m, store := newTestManager(t)
		if err := m.ClearSession(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.Events()) != 0 {
			t.Error("no event expected when nothing was cleared")
		}
	})

	t.Run("Restore loads persisted session", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Save(ctx, &models.Session{Username: "bob", Token: "persisted"})

		m := NewManager(store, shared.NewLogger(&bytes.Buffer{}))
		if err := m.Restore(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := m.Token(); tok != "persisted" {
			t.Errorf("expected restored token, got %q", tok)
		}
	})

	t.Run("ImportSession recovers username from claims", func(t *testing.T) {
		m, store := newTestManager(t)
		token := signedToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "carol"}})

		if err := m.ImportSession(ctx, "", token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u, _ := m.Username(); u != "carol" {
			t.Errorf("expected carol, got %q", u)
		}
		if store.Events()[0].Kind != EventImported {
			t.Errorf("expected import event, got %+v", store.Events())
		}

		if err := m.ImportSession(ctx, "", "opaque"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for opaque token, got %v", err)
		}
	})
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	client := &http.Client{Transport: &oauth2.Transport{Source: m.TokenSource()}}

	t.Run("fails without session", func(t *testing.T) {
		_, err := client.Get(server.URL)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("reads token at call time", func(t *testing.T) {
		_ = m.SetSession(ctx, "alice", "first")
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		_ = m.SetSession(ctx, "alice", "second")
		resp, err = client.Get(server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if len(seen) != 2 || seen[0] != "Bearer first" || seen[1] != "Bearer second" {
			t.Errorf("unexpected headers %v", seen)
		}
	})

	t.Run("cleared session makes next call unauthenticated", func(t *testing.T) {
		_ = m.ClearSession(ctx)
		if _, err := client.Get(server.URL); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestParseClaims(t *testing.T) {
	token := signedToken(t, Claims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{Subject: "ignored"}})

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.User() != "alice" {
		t.Errorf("expected alice, got %q", claims.User())
	}
	if claims.Expiry() != nil {
		t.Error("expected no expiry")
	}

	if _, err := ParseClaims("not-a-jwt"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
