package auth

import (
	"errors"
	"time"

	"ecotag-platform/internal/config"
	"ecotag-platform/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoSecret is returned when the signing secret is absent or empty.
// Issuance must fail closed; there is no default-key fallback.
var ErrNoSecret = errors.New("auth: signing secret is required")

type Manager struct {
	secret   []byte
	issuer   string
	audience string
	tokenTTL time.Duration
	roles    *rbac.Table
}

func NewManager(cfg config.AuthConfig, roles *rbac.Table) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	if roles == nil {
		return nil, errors.New("auth: role table is required")
	}

	ttl := cfg.AdminTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		tokenTTL: ttl,
		roles:    roles,
	}, nil
}

/* ===================== ISSUE ===================== */

// Issue mints a signed admin credential for the given identity.
// The permission set is looked up from the role table at this moment and
// embedded in the token; it travels with the credential until expiry.
func (m *Manager) Issue(now time.Time, id Identity) (string, error) {
	if id.ID == "" || id.Email == "" {
		return "", errors.New("auth: identity id and email are required")
	}
	if !rbac.IsAdminRole(id.Role) {
		return "", errors.New("auth: unknown role " + id.Role)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			ID:        uuid.NewString(),
		},
		UserID:      id.ID,
		Email:       id.Email,
		Role:        id.Role,
		Permissions: m.roles.PermissionsFor(id.Role),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// TokenTTL reports the configured credential lifetime, for cookie Max-Age.
func (m *Manager) TokenTTL() time.Duration { return m.tokenTTL }

/* ===================== VERIFY ===================== */

// Verify validates signature and expiry and returns the decoded claims.
// Signature mismatch, malformed payload, and expiry all surface as errors;
// call sites collapse them to "unauthenticated" with no differentiated
// recovery.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	validator := jwt.NewValidator(opts...)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, err
	}

	if claims.UserID == "" {
		return Claims{}, errors.New("user_id missing")
	}
	if claims.Role == "" {
		return Claims{}, errors.New("role missing")
	}

	return claims, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
