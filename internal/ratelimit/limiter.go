package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDenied is returned by callers that want a sentinel; Allow itself reports
// the decision and reserves error returns for backend failures.
var ErrDenied = errors.New("ratelimit: denied")

// Decision is the outcome of a single counted request.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per source key over a fixed window.
// Implementations must be safe for concurrent use. The backing store is
// swappable so a multi-instance deployment can share counters; gate logic
// never depends on which implementation is wired.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a mutex-guarded fixed-window counter map.
// Suitable for a single process only. Expired entries are dropped lazily on
// access and swept wholesale once enough keys accumulate, so the map does not
// grow without bound across distinct source addresses.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	period  time.Duration
	entries map[string]window

	sweepAbove int
	now        func() time.Time
}

func NewMemoryLimiter(maxRequests int, period time.Duration) *MemoryLimiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if period <= 0 {
		period = 15 * time.Minute
	}
	return &MemoryLimiter{
		max:        maxRequests,
		period:     period,
		entries:    make(map[string]window),
		sweepAbove: 4096,
		now:        time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, errors.New("ratelimit: key is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.After(w.resetAt) {
		w = window{count: 1, resetAt: now.Add(l.period)}
		l.entries[key] = w
		l.maybeSweep(now)
		return Decision{Allowed: true, Remaining: l.max - 1, ResetAt: w.resetAt}, nil
	}

	w.count++
	l.entries[key] = w
	if w.count > l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - w.count, ResetAt: w.resetAt}, nil
}

// maybeSweep drops expired windows once the map is large. Called with the
// lock held.
func (l *MemoryLimiter) maybeSweep(now time.Time) {
	if len(l.entries) < l.sweepAbove {
		return
	}
	for k, w := range l.entries {
		if now.After(w.resetAt) {
			delete(l.entries, k)
		}
	}
}
