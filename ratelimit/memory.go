package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps hits in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

func (s *MemoryStore) Record(ctx context.Context, key string, at time.Time, window time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[key] = append(after(s.hits[key], at.Add(-window)), at)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string, since time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), after(s.hits[key], since)...), nil
}

// Keys reports how many keys currently hold hits.
func (s *MemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// Prune drops hits at or before cutoff and forgets keys left empty.
func (s *MemoryStore) Prune(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.hits {
		if kept := after(v, cutoff); len(kept) > 0 {
			s.hits[k] = kept
		} else {
			delete(s.hits, k)
		}
	}
}

// after returns the suffix of hits strictly later than since. hits is in
// insertion order, which is chronological for a monotonic clock.
func after(hits []time.Time, since time.Time) []time.Time {
	for i, t := range hits {
		if t.After(since) {
			return hits[i:]
		}
	}
	return nil
}
