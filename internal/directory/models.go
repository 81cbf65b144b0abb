package directory

import "time"

// Account is an admin portal account. Role is assigned at creation and never
// mutated; the permission set is always derived from it at token issuance.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignIn   time.Time `json:"last_sign_in,omitempty"`
}
