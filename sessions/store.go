package sessions

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable wraps every transport failure of the backing store
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrSessionNotFound is returned when no record exists for (userID, tokenID)
	ErrSessionNotFound = errors.New("session not found")
)

// Store is a TTL-indexed key-value abstraction over sessions plus an
// independent blacklist namespace. Implementations own the atomicity of
// Create/Rotate/Revoke.
type Store interface {
	// Create writes a session record with the given TTL. Idempotent on an
	// identical (UserID, TokenID) pair: the record is overwritten.
	Create(ctx context.Context, session Session, ttl time.Duration) error

	// Get retrieves one session, or ErrSessionNotFound
	Get(ctx context.Context, userID, tokenID string) (*Session, error)

	// Rotate deletes the old record and creates the new one as a single
	// atomic operation. Returns ErrSessionNotFound when the old record is
	// absent, in which case the new record is not written.
	Rotate(ctx context.Context, userID, oldTokenID string, newSession Session, ttl time.Duration) error

	// Revoke deletes one record and reports whether it existed
	Revoke(ctx context.Context, userID, tokenID string) (bool, error)

	// RevokeAll deletes every session in the user's namespace and returns
	// the number removed
	RevokeAll(ctx context.Context, userID string) (int, error)

	// List returns a best-effort snapshot of the user's live sessions
	List(ctx context.Context, userID string) ([]Session, error)

	// Blacklist marks a token id as revoked for the given TTL
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsBlacklisted reports whether a token id is currently blacklisted
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}
