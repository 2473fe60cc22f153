package session

import (
	"context"
	"sync"

	padlock "github.com/goliatone/go-padlock"
	"github.com/google/uuid"
)

var _ padlock.SessionStore = (*Session)(nil)

// Session holds the values of one client session for the duration of a
// request. Changes are persisted by Manager.Commit.
type Session struct {
	mu sync.Mutex

	id         string
	previousID string
	values     map[string]string

	persisted bool
	dirty     bool
	rotated   bool
}

func newSession(id string, values map[string]string, persisted bool) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{id: id, values: values, persisted: persisted}
}

// ID returns the current session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Rotated reports whether RegenerateID was called since the last commit.
func (s *Session) Rotated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotated
}

// Persisted reports whether the session exists in the backend.
func (s *Session) Persisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// Dirty reports whether the session has uncommitted changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *Session) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.dirty = true
	return nil
}

func (s *Session) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
	return nil
}

// RegenerateID assigns a fresh identifier and keeps the values. The
// stored record under the old identifier is dropped on commit.
func (s *Session) RegenerateID(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persisted && !s.rotated {
		s.previousID = s.id
	}

	s.id = uuid.NewString()
	s.rotated = true
	s.dirty = true
	return nil
}

func (s *Session) snapshot() (id, previousID string, values map[string]string, dirty, rotated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.previousID, cloneValues(s.values), s.dirty, s.rotated
}

func (s *Session) markCommitted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.previousID = ""
	s.persisted = true
	s.dirty = false
	s.rotated = false
}
