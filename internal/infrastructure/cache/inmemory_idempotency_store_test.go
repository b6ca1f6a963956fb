package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new delivery as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-1", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new delivery should return true")
	})

	t.Run("returns false for already processed delivery", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-2", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "delivery-2", 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "already processed delivery should return false")
	})

	t.Run("allows reprocessing after expiration", func(t *testing.T) {
		ttl := 10 * time.Millisecond

		isNew, err := store.MarkProcessed(ctx, "delivery-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, "delivery-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew, "expired delivery should be reprocessable")
	})

	t.Run("concurrent marks resolve to a single winner", func(t *testing.T) {
		const workers = 20
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				isNew, err := store.MarkProcessed(ctx, "delivery-race", 1*time.Hour)
				require.NoError(t, err)
				if isNew {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winners, "exactly one caller should win the mark")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for unknown delivery", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "unknown-delivery")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("returns true for processed delivery", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "seen-delivery", 1*time.Hour)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, "seen-delivery")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("returns false after expiration", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "short-delivery", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "short-delivery")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close should be idempotent")
}

func TestInMemoryIdempotencyStore_RemoveExpired(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("stale-%d", i), 1*time.Millisecond)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "fresh", 1*time.Hour)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	store.removeExpired()

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.entries, 1)
	_, ok := store.entries["fresh"]
	assert.True(t, ok)
}
