package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore backs the cache with Redis so several dashboard processes
// can share one freshness window. Selected with cache.backend=redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a store to a Redis instance.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies connectivity. Called once at startup so a misconfigured
// Redis fails fast instead of on the first user request.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the value for key if Redis still holds it.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	s.client.Set(ctx, key, value, ttl)
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) {
	s.client.Del(ctx, key)
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
