package verifierfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-auth/users"
)

var _ users.Verifier = (*FakeVerifier)(nil)

// FakeVerifier is an in-memory credential verifier used by tests and the
// development bootstrap
type FakeVerifier struct {
	byIdentifier map[string]*users.User
	lock         sync.RWMutex
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		byIdentifier: make(map[string]*users.User),
	}
}

// AddUser registers a user, hashing the plaintext password, and makes the
// record resolvable by both email and username
func (fv *FakeVerifier) AddUser(user users.User, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	fv.lock.Lock()
	defer fv.lock.Unlock()
	if user.Email != "" {
		fv.byIdentifier[user.Email] = &user
	}
	if user.Username != "" {
		fv.byIdentifier[user.Username] = &user
	}
	return nil
}

func (fv *FakeVerifier) VerifyCredentials(_ context.Context, identifier, password string) (*users.User, error) {
	fv.lock.RLock()
	defer fv.lock.RUnlock()

	user, ok := fv.byIdentifier[identifier]
	if !ok {
		return nil, users.ErrAuthFailed
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, users.ErrAuthFailed
	}
	return user, nil
}
