package session

import (
	"context"
	"sync"
	"time"
)

var _ Backend = (*MemoryBackend)(nil)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process memory. It is meant for tests
// and single instance deployments.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

// WithClock overrides the clock used for expiry.
func (m *MemoryBackend) WithClock(now func() time.Time) *MemoryBackend {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *MemoryBackend) Load(_ context.Context, id string) (map[string]string, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if m.expired(entry) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return nil, nil
	}

	return cloneValues(entry.values), nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, values map[string]string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = m.entry(values, ttl)
	return nil
}

func (m *MemoryBackend) Rotate(_ context.Context, oldID, newID string, values map[string]string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, oldID)
	m.entries[newID] = m.entry(values, ttl)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryBackend) entry(values map[string]string, ttl time.Duration) memoryEntry {
	entry := memoryEntry{values: cloneValues(values)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	return entry
}

func (m *MemoryBackend) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}
