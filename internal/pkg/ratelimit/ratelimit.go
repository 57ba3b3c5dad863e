// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(key string) bool
}

type bucket struct {
	limiters []*rate.Limiter
	lastSeen time.Time
}

// KeyedStore holds at most maxKeys buckets. When full, the bucket idle the
// longest is dropped to make room for a new key.
type KeyedStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	hourly  int
	maxKeys int
	now     func() time.Time
}

// NewKeyedStore creates a store allowing perMinute requests per key with the
// given burst. A perMinute of zero or less disables limiting.
func NewKeyedStore(perMinute, burst, maxKeys int) *KeyedStore {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = perMinute
	}
	if burst <= 0 {
		burst = 1
	}
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &KeyedStore{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// WithHourlyCap adds a second budget of perHour requests per rolling hour to
// every key. It must be called before the store is used.
func (s *KeyedStore) WithHourlyCap(perHour int) *KeyedStore {
	s.hourly = perHour
	return s
}

func (s *KeyedStore) newBucket() *bucket {
	b := &bucket{limiters: []*rate.Limiter{rate.NewLimiter(s.limit, s.burst)}}
	if s.hourly > 0 && s.limit != rate.Inf {
		b.limiters = append(b.limiters, rate.NewLimiter(rate.Every(time.Hour/time.Duration(s.hourly)), s.hourly))
	}
	return b
}

// Allow takes one token from each of key's budgets. A refused request
// consumes nothing.
func (s *KeyedStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		if len(s.buckets) >= s.maxKeys {
			s.evictOldest()
		}
		b = s.newBucket()
		s.buckets[key] = b
	}
	b.lastSeen = now

	reservations := make([]*rate.Reservation, 0, len(b.limiters))
	for _, l := range b.limiters {
		r := l.ReserveN(now, 1)
		reservations = append(reservations, r)
		if !r.OK() || r.DelayFrom(now) > 0 {
			for _, taken := range reservations {
				taken.CancelAt(now)
			}
			return false
		}
	}
	return true
}

func (s *KeyedStore) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, b := range s.buckets {
		if !found || b.lastSeen.Before(oldest) {
			oldestKey, oldest, found = key, b.lastSeen, true
		}
	}
	if found {
		delete(s.buckets, oldestKey)
	}
}

// Sweep drops buckets unused for longer than idle and returns how many were removed
func (s *KeyedStore) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys
func (s *KeyedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RunSweeper calls Sweep every interval until ctx is done
func (s *KeyedStore) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(idle)
		}
	}
}
