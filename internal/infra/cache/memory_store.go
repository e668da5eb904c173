package cache

import (
	"context"
	"sync"
	"time"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/metrics"
)

// MemoryStore is an in-process cache selected by CACHE_BACKEND=memory.
// Entries live for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entity.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]entity.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result unless it is absent or expired.
func (s *MemoryStore) Get(_ context.Context, fingerprint string) (string, bool) {
	now := s.now()

	s.mu.RLock()
	entry, ok := s.entries[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if entry.Expired(now, s.ttl) {
		s.evictExpired(fingerprint, now)
		return "", false
	}
	return entry.Result, true
}

// evictExpired deletes the entry only if it is still expired at now, so a
// Put that landed after the read lock was released survives.
func (s *MemoryStore) evictExpired(fingerprint string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[fingerprint]
	if !ok || !entry.Expired(now, s.ttl) {
		return false
	}
	delete(s.entries, fingerprint)
	metrics.RecordCacheEviction()
	return true
}

// Put stores result under fingerprint.
func (s *MemoryStore) Put(_ context.Context, fingerprint, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fingerprint] = entity.CacheEntry{
		Fingerprint: fingerprint,
		Result:      result,
		CreatedAt:   s.now(),
	}
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
