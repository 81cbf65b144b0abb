package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only event store. Capacity is bounded so
// a long-lived process does not grow the trail without limit.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{cap: 10000} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
	return nil
}

// List returns up to limit events, newest first.
func (r *MemoryRepo) List(_ context.Context, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.events)
	if limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
