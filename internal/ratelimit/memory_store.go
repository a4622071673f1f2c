package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// MemoryStore keeps one fixed-window bucket per key in process memory, with
// the same rules as the rate_buckets upsert: a window opens on the first
// request and the counter resets once a full window has passed.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	sweeps  *rate.Limiter
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, window)

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		b = &bucket{windowStart: now}
		s.buckets[key] = b
	}
	b.count++
	return b.count <= limit, nil
}

// sweep drops buckets whose window has expired, at most once per window.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if s.sweeps == nil {
		s.sweeps = rate.NewLimiter(rate.Every(window), 1)
	}
	if !s.sweeps.AllowN(now, 1) {
		return
	}
	for key, b := range s.buckets {
		if now.Sub(b.windowStart) >= window {
			delete(s.buckets, key)
		}
	}
}
