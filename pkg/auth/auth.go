// Package auth turns bearer tokens into the id of the user who owns a store.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Principal is the authenticated caller
type Principal struct {
	UserID string
	Email  string
}

// Verifier validates a bearer token
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// BearerToken strips the "Bearer " prefix from an Authorization header value
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal adds the caller to ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the caller from ctx
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
