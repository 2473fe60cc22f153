package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session hashes.
const DefaultRedisPrefix = "padlock:session:"

var _ Backend = (*RedisBackend)(nil)

// RedisBackend stores each session as a redis hash with a TTL.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend returns a backend using client. An empty prefix
// falls back to DefaultRedisPrefix.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(id string) string {
	return r.prefix + id
}

func (r *RedisBackend) Load(ctx context.Context, id string) (map[string]string, error) {
	values, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func (r *RedisBackend) Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		r.write(ctx, pipe, id, values, ttl)
		return nil
	})
	return err
}

// Rotate runs as a single MULTI/EXEC transaction so the old ID never
// outlives the new one.
func (r *RedisBackend) Rotate(ctx context.Context, oldID, newID string, values map[string]string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(oldID))
		r.write(ctx, pipe, newID, values, ttl)
		return nil
	})
	return err
}

func (r *RedisBackend) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisBackend) write(ctx context.Context, pipe redis.Pipeliner, id string, values map[string]string, ttl time.Duration) {
	key := r.key(id)
	pipe.Del(ctx, key)

	if len(values) == 0 {
		return
	}

	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	pipe.HSet(ctx, key, args...)

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
}
