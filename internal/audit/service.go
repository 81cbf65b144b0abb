package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage contract for audit events.
//
// It MUST be append-only; no Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Service records admin activity. Callers treat it as best-effort: a failed
// append is logged by the caller, never propagated to the client.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogSignIn records a successful admin sign-in.
func (s *Service) LogSignIn(ctx context.Context, userID, email, role, ip string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeSignIn,
		ActorUserID: userID,
		ActorEmail:  email,
		ActorRole:   role,
		IPAddress:   ip,
		Message:     "sign-in succeeded",
	})
}

// LogSignInDenied records a rejected credential check.
func (s *Service) LogSignInDenied(ctx context.Context, email, ip string) error {
	return s.Append(ctx, Event{
		Type:       EventTypeSignInDenied,
		ActorEmail: email,
		IPAddress:  ip,
		Message:    "sign-in rejected",
	})
}

// LogSignOut records an explicit sign-out.
func (s *Service) LogSignOut(ctx context.Context, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeSignOut,
		IPAddress: ip,
		Message:   "sign-out",
	})
}

// Trail returns the most recent events, newest first.
func (s *Service) Trail(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}
