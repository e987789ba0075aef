// Package memory holds single-process fallbacks for stores that normally
// live in Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/thejerf/abtime"
)

// purgeEvery bounds how many revocations happen between sweeps of expired
// entries.
const purgeEvery = 64

// RevocationStore is an in-process token denylist. Entries are dropped once
// the token they name has expired.
type RevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   abtime.AbstractTime
	writes  int
}

// NewRevocationStore returns an empty store. A nil clock means wall time.
func NewRevocationStore(clock abtime.AbstractTime) *RevocationStore {
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &RevocationStore{revoked: make(map[string]time.Time), clock: clock}
}

func (s *RevocationStore) Revoke(_ context.Context, id string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !until.After(now) {
		return nil
	}
	if cur, ok := s.revoked[id]; !ok || until.After(cur) {
		s.revoked[id] = until
	}
	s.writes++
	if s.writes%purgeEvery == 0 {
		s.purgeLocked(now)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[id]
	if !ok {
		return false, nil
	}
	if !until.After(s.clock.Now()) {
		delete(s.revoked, id)
		return false, nil
	}
	return true, nil
}

// Len reports the number of tracked entries, expired or not.
func (s *RevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}

func (s *RevocationStore) purgeLocked(now time.Time) {
	for id, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, id)
		}
	}
}
