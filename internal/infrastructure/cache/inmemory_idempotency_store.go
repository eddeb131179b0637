package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retailbill/backend/internal/domain/shared"
)

const janitorInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps settlement keys in a process-local map.
// Suitable for single-instance deployments and tests; separate processes
// do not see each other's keys, so a distributed deployment can still
// settle the same refund twice.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	expiry  map[string]time.Time
	done    chan struct{}
	janitor sync.WaitGroup
	once    sync.Once
}

// NewInMemoryIdempotencyStore builds a store and starts a janitor that
// evicts expired keys in the background.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		done:   make(chan struct{}),
	}

	s.janitor.Add(1)
	go s.runJanitor()

	return s
}

// MarkProcessed records the key with the given TTL. It reports true
// when the key was absent or expired, false when a live key already
// held the slot.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.expiry[key]; ok && time.Now().Before(deadline) {
		return false, nil
	}

	s.expiry[key] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live, unexpired key exists.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.expiry[key]
	return ok && time.Now().Before(deadline), nil
}

// Close stops the janitor. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.janitor.Wait()
	})
	return nil
}

// Size reports the number of stored keys, expired ones included until
// the janitor runs.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiry)
}

func (s *InMemoryIdempotencyStore) runJanitor() {
	defer s.janitor.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, deadline := range s.expiry {
		if now.After(deadline) {
			delete(s.expiry, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
