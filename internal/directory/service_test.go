package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecotag-platform/internal/rbac"
)

func seededService(t *testing.T) (*Service, time.Time) {
	t.Helper()
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	if err := repo.Seed(now, DefaultSeed()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(repo), now
}

func TestAuthenticate_Success(t *testing.T) {
	svc, now := seededService(t)

	id, err := svc.Authenticate(context.Background(), "analyst@example.com", "analyst-pass", now)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Email != "analyst@example.com" || id.Role != rbac.RoleAnalyst {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.ID == "" {
		t.Fatalf("expected account id")
	}
}

func TestAuthenticate_EmailIsCaseInsensitive(t *testing.T) {
	svc, now := seededService(t)
	if _, err := svc.Authenticate(context.Background(), "  Admin@Example.COM ", "admin-pass", now); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, now := seededService(t)
	_, err := svc.Authenticate(context.Background(), "analyst@example.com", "wrong", now)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate_UnknownAccountSameError(t *testing.T) {
	svc, now := seededService(t)
	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever", now)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown accounts must not be distinguishable, got %v", err)
	}
}

func TestAuthenticate_EmptyInputRejected(t *testing.T) {
	svc, now := seededService(t)
	if _, err := svc.Authenticate(context.Background(), "", "", now); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate_RecordsSignInTime(t *testing.T) {
	svc, now := seededService(t)
	if _, err := svc.Authenticate(context.Background(), "admin@example.com", "admin-pass", now); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	accts, err := svc.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, a := range accts {
		if a.Email == "admin@example.com" {
			if !a.LastSignIn.Equal(now) {
				t.Fatalf("expected last sign-in %v, got %v", now, a.LastSignIn)
			}
			return
		}
	}
	t.Fatalf("admin account missing from roster")
}

func TestListAccounts_SortedAndComplete(t *testing.T) {
	svc, _ := seededService(t)
	accts, err := svc.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accts) != 3 {
		t.Fatalf("expected 3 seeded accounts, got %d", len(accts))
	}
	for i := 1; i < len(accts); i++ {
		if accts[i-1].Email > accts[i].Email {
			t.Fatalf("roster not sorted by email")
		}
	}
}
