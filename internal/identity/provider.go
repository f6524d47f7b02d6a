// Package identity holds the external identity providers the service trusts:
// the anonymous session issuer used for guests and the Google ID token
// verifier used for real sign-in.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrInvalidSession      = errors.New("invalid or expired guest session")
)

// Anonymous is a freshly issued anonymous identity.
type Anonymous struct {
	ID           uuid.UUID
	SessionToken string
}

type Provider interface {
	CreateAnonymousIdentity(ctx context.Context) (*Anonymous, error)
	RestoreSession(ctx context.Context, token string) (uuid.UUID, error)
}
