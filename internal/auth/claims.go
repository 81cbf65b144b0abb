package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is the account record handed to the issuer at sign-in.
// Role is already resolved by the directory lookup; the issuer derives the
// permission set from it and never stores permissions independently.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// Claims are the only supported JWT claims shape for admin credentials.
// Invariant: Permissions always equals the role table's set at issuance time.
// Verifiers trust the embedded set and do not recompute it, so table changes
// never retroactively alter outstanding tokens.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
