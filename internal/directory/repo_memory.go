package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ecotag-platform/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryRepo holds admin accounts in process memory. There is no durable
// user store in this system; accounts are seeded at startup.
type MemoryRepo struct {
	mu      sync.Mutex
	byEmail map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byEmail: map[string]Account{}}
}

// SeedAccount describes one account to create at startup. Passwords are
// hashed here so plaintext never lives past boot.
type SeedAccount struct {
	Email    string
	Name     string
	Role     string
	Password string
}

// DefaultSeed is the demo admin roster.
func DefaultSeed() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@example.com", Name: "Root Admin", Role: rbac.RoleSuperAdmin, Password: "admin-pass"},
		{Email: "moderator@example.com", Name: "Mona Moderator", Role: rbac.RoleModerator, Password: "moderator-pass"},
		{Email: "analyst@example.com", Name: "Ana Analyst", Role: rbac.RoleAnalyst, Password: "analyst-pass"},
	}
}

func (r *MemoryRepo) Seed(now time.Time, seeds []SeedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		email := normalizeEmail(s.Email)
		r.byEmail[email] = Account{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         s.Name,
			Role:         s.Role,
			PasswordHash: hash,
			CreatedAt:    now,
		}
	}
	return nil
}

func (r *MemoryRepo) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, 0, len(r.byEmail))
	for _, a := range r.byEmail {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryRepo) TouchSignIn(_ context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return ErrNotFound
	}
	a.LastSignIn = at
	r.byEmail[a.Email] = a
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
