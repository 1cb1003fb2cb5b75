package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestMemoizeCachesResult(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	calls := 0
	fn := func() (payload, error) {
		calls++
		return payload{Name: "first", Value: calls}, nil
	}

	got, err := Memoize(ctx, store, "k", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "first", Value: 1}, got)

	// A fresh entry is served from the store without calling fn again.
	got, err = Memoize(ctx, store, "k", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "first", Value: 1}, got)
	assert.Equal(t, 1, calls)
}

func TestMemoizeExpiryTriggersSingleRefetch(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	fn := func() (payload, error) {
		calls++
		return payload{Value: calls}, nil
	}

	_, err := Memoize(ctx, store, "k", time.Minute, fn)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	got, err := Memoize(ctx, store, "k", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "expired entry should trigger exactly one refetch")
	assert.Equal(t, 2, got.Value)
}

func TestMemoizeErrorStoresNothing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("upstream down")

	calls := 0
	_, err := Memoize(ctx, store, "k", time.Minute, func() (payload, error) {
		calls++
		return payload{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len(), "failed fetch must not populate the cache")

	// The next lookup tries again instead of serving a poisoned entry.
	_, err = Memoize(ctx, store, "k", time.Minute, func() (payload, error) {
		calls++
		return payload{Value: 9}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoizeDropsUndecodableEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, "k", []byte("{corrupt"), time.Minute)

	got, err := Memoize(ctx, store, "k", time.Minute, func() (payload, error) {
		return payload{Value: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"), time.Minute)

	_, ok := store.Get(ctx, "a")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	_, ok = store.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired entries are removed on read")
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"), time.Minute)
	store.Delete(ctx, "a")

	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)
}
