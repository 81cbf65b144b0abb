package rewards

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is the in-memory rewards store. There is no token ledger or
// durable storage in this system; everything here is simulated state.
type MemoryRepo struct {
	mu sync.Mutex

	Scans        []ScanEvent
	Transactions []Transaction
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) AppendScan(_ context.Context, s ScanEvent) error {
	if s.UserID == "" {
		return errors.New("user_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scans = append(r.Scans, s)
	return nil
}

func (r *MemoryRepo) AppendTransaction(_ context.Context, t Transaction) error {
	if t.UserID == "" {
		return errors.New("user_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transactions = append(r.Transactions, t)
	return nil
}

func (r *MemoryRepo) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transaction, 0)
	for _, t := range r.Transactions {
		if userID != "" && t.UserID != userID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepo) ListScans(_ context.Context, userID, result string) ([]ScanEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScanEvent, 0)
	for _, s := range r.Scans {
		if userID != "" && s.UserID != userID {
			continue
		}
		if result != "" && s.Result != result {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
