// Package auth defines the boundary to the external authentication
// provider: the identity type, the provider operations, the mapping of
// provider error codes to user-facing messages, and an observable
// session holding the current identity.
package auth

import (
	"context"
	"errors"
)

// ErrAuthenticationRequired is fatal to the current flow; the caller
// redirects to sign-in instead of retrying.
var ErrAuthenticationRequired = errors.New("utilisateur non authentifié")

// Identity is the authenticated user as reported by the provider.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
}

// Provider is the external authentication service. Implementations
// return *CodedError for provider-level failures so callers can map
// them with LoginMessage/RegisterMessage.
type Provider interface {
	Login(ctx context.Context, email, password string) (*Identity, error)
	Register(ctx context.Context, email, password, displayName string) (*Identity, error)
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	// CurrentIdentity returns nil when nobody is signed in.
	CurrentIdentity(ctx context.Context) (*Identity, error)
}
