package domain

import (
	"context"
	"errors"
)

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// AuthUser is the authenticated caller identity carried in request context.
type AuthUser struct {
	AccountID string
}

type contextKey string

const authUserKey contextKey = "auth_user"

// ContextWithUser returns ctx carrying user.
func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// UserFromContext extracts the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(*AuthUser)
	return user, ok
}
