package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
)

func newTestStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRevocationStore(client, nil), mr
}

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "abc", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_EntryExpiresWithToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "short", time.Now().Add(30*time.Minute)))
	ttl := mr.TTL(revokedPrefix + "short")
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)

	mr.FastForward(31 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_IgnoresExpiredTokens(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, store.Revoke(context.Background(), "stale", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedPrefix+"stale"))
}

func TestRevocationStore_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRevocationStore(client, nil)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
}

func TestRevocationStore_TTLFollowsInjectedClock(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	epoch := time.Date(2030, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := abtime.NewManualAtTime(epoch)
	store := NewRevocationStore(client, clock)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "tok", epoch.Add(10*time.Minute)))
	assert.Equal(t, 10*time.Minute, mr.TTL(revokedPrefix+"tok"))

	clock.Advance(11 * time.Minute)
	require.NoError(t, store.Revoke(ctx, "late", epoch.Add(10*time.Minute)))
	assert.False(t, mr.Exists(revokedPrefix+"late"))
}
