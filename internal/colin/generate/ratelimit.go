package generate

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimit is the maximum number of backend calls allowed per
	// chat per minute when no explicit limit is configured.
	DefaultRateLimit = 20

	// defaultRateLimitWindow is the sliding window duration.
	defaultRateLimitWindow = time.Minute
)

// RateLimiter enforces a per-chat sliding-window limit on backend calls.
// When a chat exhausts its quota the resolver skips the remote path and
// answers from the fallback pools instead, so the limit is invisible to the
// user beyond reply quality.
//
// Internally it holds the call timestamps for each chat within the current
// window and prunes stale entries on every Allow call, keeping memory
// bounded to O(limit) entries per active chat.
//
// RateLimiter is safe for concurrent use from multiple goroutines.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string][]time.Time // chat ID → call timestamps in window
}

// NewRateLimiter returns a RateLimiter that allows at most limit calls per
// chat within window.
//
// If limit ≤ 0 it defaults to DefaultRateLimit.
// If window ≤ 0 it defaults to one minute.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return &RateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string][]time.Time),
	}
}

// Allow reports whether the chat may make another backend call and records
// the current timestamp when it may.
func (r *RateLimiter) Allow(chatID string) bool {
	return r.allowAt(chatID, time.Now())
}

// allowAt is the time-injectable core of Allow (for testing).
func (r *RateLimiter) allowAt(chatID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	kept := r.counters[chatID][:0]
	for _, ts := range r.counters[chatID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= r.limit {
		r.counters[chatID] = kept
		return false
	}

	r.counters[chatID] = append(kept, now)
	return true
}
