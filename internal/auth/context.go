package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxEmail
	ctxRole
	ctxPermissions
)

// WithIdentity stores verified admin identity in the request context so
// downstream handlers never need to re-verify the token.
func WithIdentity(ctx context.Context, userID, email, role string, permissions []string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxEmail, email)
	ctx = context.WithValue(ctx, ctxRole, role)
	ctx = context.WithValue(ctx, ctxPermissions, permissions)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func Email(ctx context.Context) (string, error) {
	v := ctx.Value(ctxEmail)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("email not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// Permissions returns the credential's embedded permission set.
// Missing context resolves to an empty set, never an error; authorization
// checks fail closed on empty.
func Permissions(ctx context.Context) []string {
	if v, ok := ctx.Value(ctxPermissions).([]string); ok && v != nil {
		return v
	}
	return []string{}
}
