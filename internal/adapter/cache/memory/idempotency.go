package memory

import (
	"context"
	"sync"
	"time"

	"github.com/infoevent/notification-service/internal/port"
)

// PendingTTL bounds how long a reservation survives a call that never
// completes.
const PendingTTL = 5 * time.Minute

type entry struct {
	data    []byte
	pending bool
	expires time.Time
}

// IdempotencyStore is the in-process variant used when no redis is
// configured. Entries expire after ttl.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewIdempotencyStore keeps responses for ttl, or a day when ttl is not
// positive.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ port.IdempotencyStore = (*IdempotencyStore)(nil)

func (s *IdempotencyStore) Reserve(_ context.Context, key string) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		if e.pending {
			return false, nil, nil
		}
		return false, append([]byte(nil), e.data...), nil
	}
	s.sweep(now)
	s.entries[key] = entry{pending: true, expires: now.Add(PendingTTL)}
	return true, nil, nil
}

func (s *IdempotencyStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{data: append([]byte(nil), data...), expires: s.now().Add(s.ttl)}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.pending {
		delete(s.entries, key)
	}
	return nil
}

// sweep drops expired entries so the map does not grow without bound.
func (s *IdempotencyStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}
