package session

import (
	"context"
	"sync"

	"github.com/desertthunder/flix/internal/models"
)

// MemoryStore is a [Store] that forgets the session when the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
	events  []Event
}

// Event is a recorded sign-in or sign-out.
type Event struct {
	Username string
	Kind     string
	Reason   string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	c := *s.session
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.session = &c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func (s *MemoryStore) RecordEvent(_ context.Context, username, kind, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Username: username, Kind: kind, Reason: reason})
	return nil
}

// Events returns the recorded events, oldest first.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
