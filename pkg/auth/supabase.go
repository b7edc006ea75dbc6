package auth

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier asks Supabase Auth who owns a token
type SupabaseVerifier struct {
	lookup func(token string) (*Principal, error)
}

var _ Verifier = (*SupabaseVerifier)(nil)

// NewSupabaseVerifier creates a verifier backed by a Supabase project
func NewSupabaseVerifier(url, key string) (*SupabaseVerifier, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseVerifier{lookup: func(token string) (*Principal, error) {
		user, err := client.Auth.WithToken(token).GetUser()
		if err != nil {
			return nil, err
		}
		return &Principal{UserID: user.ID.String(), Email: user.Email}, nil
	}}, nil
}

// Verify resolves the token's user. The Supabase client has no context
// support, so ctx is only checked before the call.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	token = BearerToken(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := v.lookup(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: missing user ID", ErrInvalidClaims)
	}
	return p, nil
}
