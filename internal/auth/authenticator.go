// Package auth handles accounts, sessions and the shared secret used by the
// campaign scheduler.
package auth

import (
	"context"

	"github.com/mmynk/runpool/internal/models"
)

// Authenticator signs users up and in. AuthService depends only on this,
// so a passkey or OAuth implementation can replace passwords later.
type Authenticator interface {
	// Register creates an account. Returns ErrEmailExists for a taken
	// email and ErrMissingFields or ErrWeakPassword for bad input.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown email or a
	// wrong credential, without saying which.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}
