// Package cache memoizes fetch results for a bounded freshness window.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a byte-level TTL store. Get returns false for absent or
// expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Memoize returns the cached value for key when a fresh one exists,
// otherwise calls fn once and stores its result. A failed fn stores
// nothing, so a broken refresh never replaces older data with partial
// data.
func Memoize[T any](ctx context.Context, store Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var result T

	if cached, ok := store.Get(ctx, key); ok {
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
		// Undecodable entries are dropped and refetched.
		store.Delete(ctx, key)
	}

	result, err := fn()
	if err != nil {
		return result, err
	}

	if data, err := json.Marshal(result); err == nil {
		store.Set(ctx, key, data, ttl)
	}
	return result, nil
}
