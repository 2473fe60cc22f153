package session

import (
	"context"
	"time"

	padlock "github.com/goliatone/go-padlock"
	"github.com/google/uuid"
)

const (
	// DefaultCookieName is the cookie carrying the session identifier.
	DefaultCookieName = "padlock_session"
	// DefaultTTL is the idle lifetime of a stored session.
	DefaultTTL = 2 * time.Hour
)

// Manager starts and commits sessions against a Backend.
type Manager struct {
	backend    Backend
	cookieName string
	ttl        time.Duration
	cookie     padlock.CookieOptions
	logger     padlock.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCookieOptions sets the session cookie attributes.
func WithCookieOptions(opts padlock.CookieOptions) ManagerOption {
	return func(m *Manager) {
		m.cookie = opts
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger padlock.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager returns a manager storing sessions in backend.
func NewManager(backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:    backend,
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
		cookie:     padlock.DefaultCookieOptions(),
		logger:     padlock.NewSlogLogger(nil),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) CookieOptions() padlock.CookieOptions {
	return m.cookie
}

// Start loads the session identified by id. Unknown, expired or empty
// identifiers yield a fresh session with a server generated identifier,
// client supplied identifiers are never adopted.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		values, err := m.backend.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if values != nil {
			return newSession(id, values, true), nil
		}
		m.logger.Debug("session %s not found, starting a new one", shortID(id))
	}

	return newSession(uuid.NewString(), nil, false), nil
}

// Commit persists pending changes. A rotated session replaces its old
// record atomically.
func (m *Manager) Commit(ctx context.Context, s *Session) error {
	id, previousID, values, dirty, rotated := s.snapshot()
	if !dirty {
		return nil
	}

	var err error
	if rotated && previousID != "" {
		err = m.backend.Rotate(ctx, previousID, id, values, m.ttl)
	} else {
		err = m.backend.Save(ctx, id, values, m.ttl)
	}

	if err != nil {
		m.logger.Error("session commit failed: %v", err)
		return err
	}

	s.markCommitted()
	return nil
}

// Destroy removes the stored session.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	return m.backend.Delete(ctx, s.ID())
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
