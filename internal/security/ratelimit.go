package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a key exceeds its rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig limits how many voice messages one sender may submit.
type RateLimitConfig struct {
	// PerMinute is the number of events allowed per key in any sliding
	// minute. Zero disables limiting.
	PerMinute int `yaml:"per_minute"`
}

// RateLimiter is a per-key sliding window limiter. Each key tracks the
// timestamps of its recent events.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter. A nil *RateLimiter allows everything,
// as does one built with PerMinute <= 0.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		window:  time.Minute,
		limit:   cfg.PerMinute,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one event for key. It returns ErrRateLimited, without
// recording, when the key is already at its limit.
func (rl *RateLimiter) Allow(key string) error {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	events := evict(rl.buckets[key], now.Add(-rl.window))

	if len(events) >= rl.limit {
		rl.buckets[key] = events
		return ErrRateLimited
	}
	rl.buckets[key] = append(events, now)
	return nil
}

// Limited reports whether key is at its limit without recording an event.
func (rl *RateLimiter) Limited(key string) bool {
	if rl == nil {
		return false
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	events, ok := rl.buckets[key]
	if !ok {
		return false
	}
	events = evict(events, rl.now().Add(-rl.window))
	if len(events) == 0 {
		delete(rl.buckets, key)
		return false
	}
	rl.buckets[key] = events
	return len(events) >= rl.limit
}

// Sweep drops keys with no event inside the window. Call it periodically
// so the map does not grow with every sender ever seen.
func (rl *RateLimiter) Sweep() int {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	removed := 0
	for key, events := range rl.buckets {
		if len(evict(events, cutoff)) == 0 {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// evict drops events older than cutoff. Events are chronological.
func evict(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	return events[i:]
}
