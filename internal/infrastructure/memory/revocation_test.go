package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
)

var epoch = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func TestRevocationStore_RevokeUntilExpiry(t *testing.T) {
	clock := abtime.NewManualAtTime(epoch)
	store := NewRevocationStore(clock)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "t1", epoch.Add(time.Hour)))

	revoked, err := store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, revoked)

	clock.Advance(59 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "t1")
	assert.True(t, revoked)

	clock.Advance(2 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "t1")
	assert.False(t, revoked)
	assert.Equal(t, 0, store.Len())
}

func TestRevocationStore_IgnoresExpired(t *testing.T) {
	store := NewRevocationStore(abtime.NewManualAtTime(epoch))
	require.NoError(t, store.Revoke(context.Background(), "old", epoch.Add(-time.Second)))
	assert.Equal(t, 0, store.Len())
}

func TestRevocationStore_PurgesOnWrite(t *testing.T) {
	clock := abtime.NewManualAtTime(epoch)
	store := NewRevocationStore(clock)
	ctx := context.Background()

	for i := 0; i < purgeEvery-1; i++ {
		require.NoError(t, store.Revoke(ctx, fmt.Sprintf("a%d", i), epoch.Add(time.Minute)))
	}
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Revoke(ctx, "fresh", clock.Now().Add(time.Hour)))

	assert.Equal(t, 1, store.Len())
}

func TestRevocationStore_Concurrent(t *testing.T) {
	store := NewRevocationStore(nil)
	ctx := context.Background()
	until := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", i)
			_ = store.Revoke(ctx, id, until)
			revoked, err := store.IsRevoked(ctx, id)
			assert.NoError(t, err)
			assert.True(t, revoked)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, store.Len())
}
