package users

import (
	"context"
	"errors"
)

// ErrAuthFailed is returned for any credential mismatch. Deliberately carries
// no detail about which field was wrong.
var ErrAuthFailed = errors.New("invalid credentials")

// Verifier checks credentials against an external user record store.
// Registration and persistent user storage live outside this service.
type Verifier interface {
	// VerifyCredentials resolves the identifier (email or username) and
	// checks the password, returning the user record or ErrAuthFailed
	VerifyCredentials(ctx context.Context, identifier, password string) (*User, error)
}
