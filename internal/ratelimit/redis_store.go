package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts window hits in Redis so the quota holds across replicas.
// The first hit of a window creates the key with a TTL equal to the window;
// the key's expiry is the window boundary.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	// Client is the shared Redis client. Required.
	Client *redis.Client
	// Prefix namespaces limiter keys. Defaults to "ratelimit".
	Prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: opts.Client, prefix: prefix}, nil
}

// Increment bumps the counter for key and returns the new count and the
// window's reset time.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate limit key: %w", err)
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if count == 1 || remaining < 0 {
		// Fresh window, or a key that lost its TTL (e.g. after a Redis
		// restart mid-window). Re-arm the expiry so the counter cannot
		// live forever.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("set rate limit window expiry: %w", err)
		}
		remaining = window
	}

	return count, time.Now().Add(remaining), nil
}
