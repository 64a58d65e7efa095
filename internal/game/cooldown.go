package game

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CooldownStore is the anti-spam gate the engine depends on. Allow performs
// a test-and-set: it reports whether the cooldown for (userID, action) has
// elapsed and, if so, records the invocation. The store is advisory only;
// correctness of state transitions does not depend on it.
type CooldownStore interface {
	Allow(ctx context.Context, userID uint, action ActionType, cooldown time.Duration) (bool, error)
}

// MemoryCooldownStore keeps last-invocation times in process. Suitable for
// single-instance deployments only; multiple instances need the redis store.
type MemoryCooldownStore struct {
	mu   sync.Mutex
	last map[string]time.Time

	// now is overridable in tests.
	now func() time.Time
}

// NewMemoryCooldownStore creates an in-process cooldown store.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow implements CooldownStore.
func (s *MemoryCooldownStore) Allow(ctx context.Context, userID uint, action ActionType, cooldown time.Duration) (bool, error) {
	key := cooldownKey(userID, action)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[key]; ok && now.Sub(last) < cooldown {
		return false, nil
	}

	s.last[key] = now
	return true, nil
}

// Len returns the number of tracked keys.
func (s *MemoryCooldownStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// Prune drops entries older than the given horizon. Called periodically so
// the map does not grow with every user that ever acted.
func (s *MemoryCooldownStore) Prune(horizon time.Duration) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for key, last := range s.last {
		if now.Sub(last) > horizon {
			delete(s.last, key)
			pruned++
		}
	}
	return pruned
}

func cooldownKey(userID uint, action ActionType) string {
	return fmt.Sprintf("cooldown:%d:%s", userID, action)
}
