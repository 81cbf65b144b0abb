package directory

import (
	"context"
	"errors"
	"time"

	"ecotag-platform/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("directory: account not found")
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
)

// Repository abstracts admin account lookups. The only implementation is
// in-memory; persistent user storage is deliberately absent.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	TouchSignIn(ctx context.Context, email string, at time.Time) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Authenticate checks email/password and returns the identity handed to the
// token issuer. Unknown accounts and wrong passwords collapse to the same
// error so responses cannot be used to probe the roster.
func (s *Service) Authenticate(ctx context.Context, email, password string, now time.Time) (auth.Identity, error) {
	if email == "" || password == "" {
		return auth.Identity{}, ErrInvalidCredentials
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Identity{}, ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return auth.Identity{}, ErrInvalidCredentials
	}

	_ = s.repo.TouchSignIn(ctx, acct.Email, now)

	return auth.Identity{ID: acct.ID, Email: acct.Email, Role: acct.Role}, nil
}

// ListAccounts returns the admin roster for the portal's users view.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}
