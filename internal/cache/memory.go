package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process. Expired entries are dropped on
// read, by Purge, or by a running Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	ent, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if s.expired(ent) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && s.expired(cur) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return append([]byte(nil), ent.value...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ent := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		ent.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = ent
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.RLock()
	ent, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.expired(ent) {
		return TTLMissing, nil
	}
	if ent.expiresAt.IsZero() {
		return TTLNoExpiry, nil
	}
	return ent.expiresAt.Sub(s.now()), nil
}

// Purge removes every expired entry and returns how many were dropped.
func (s *MemoryStore) Purge(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, ent := range s.items {
		if s.expired(ent) {
			delete(s.items, key)
			n++
		}
	}
	return n, nil
}

// Sweep purges expired entries every interval until ctx is done.
func (s *MemoryStore) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Purge(ctx)
		}
	}
}

func (s *MemoryStore) expired(ent memoryEntry) bool {
	return !ent.expiresAt.IsZero() && !s.now().Before(ent.expiresAt)
}
