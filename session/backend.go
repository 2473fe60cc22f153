package session

import (
	"context"
	"time"
)

// Backend persists session values keyed by session ID.
//
// Load returns a nil map and a nil error for unknown or expired sessions.
type Backend interface {
	Load(ctx context.Context, id string) (map[string]string, error)
	Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error
	// Rotate moves values to newID and removes oldID in one step.
	Rotate(ctx context.Context, oldID, newID string, values map[string]string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func cloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
