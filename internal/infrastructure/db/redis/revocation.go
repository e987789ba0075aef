package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thejerf/abtime"
)

const revokedPrefix = "revoked:"

// RevocationStore keeps revoked token ids in Redis. Each key expires when
// the token would have expired anyway, so the set never outgrows the live
// token population.
// Key format: revoked:<token_id>
type RevocationStore struct {
	client *redis.Client
	clock  abtime.AbstractTime
}

// NewRevocationStore wraps client. The clock turns token expiry into a key
// TTL and must be the one the token issuer uses; nil means wall time.
func NewRevocationStore(client *redis.Client, clock abtime.AbstractTime) *RevocationStore {
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &RevocationStore{client: client, clock: clock}
}

// Revoke marks id as revoked until the given instant. Ids already past
// their expiry are ignored.
func (s *RevocationStore) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
