package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds every Redis round trip so a slow cache cannot stall a quote.
const DefaultTimeout = 500 * time.Millisecond

// RedisOption customises the client built by NewRedisAdapter.
type RedisOption func(*redis.Options)

// WithTimeout sets the dial, read and write timeouts.
func WithTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) {
		o.DialTimeout = d
		o.ReadTimeout = d
		o.WriteTimeout = d
	}
}

// RedisAdapter implements Cache on Redis.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter parses redis://[:password@]host[:port][/database] and creates the adapter.
// The connection is lazy; call Ping to verify reachability.
func NewRedisAdapter(redisURL string, opts ...RedisOption) (*RedisAdapter, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	WithTimeout(DefaultTimeout)(options)
	for _, opt := range opts {
		opt(options)
	}

	return &RedisAdapter{client: redis.NewClient(options)}, nil
}

// Get returns the value stored under key.
func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	case err != nil:
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key for ttl.
func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("negative ttl for key %s", key)
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
