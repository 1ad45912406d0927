package storefakes

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-auth/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

// FakeSessionStore is an in-memory Store used by tests. Set Unavailable to
// make every operation fail like an unreachable backend.
type FakeSessionStore struct {
	records     map[string]sessions.Session // key: userID + ":" + tokenID
	blacklisted map[string]time.Time        // tokenID -> entry expiry
	lock        sync.Mutex

	Unavailable bool
	NowFunc     func() time.Time
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{
		records:     make(map[string]sessions.Session),
		blacklisted: make(map[string]time.Time),
		NowFunc:     time.Now,
	}
}

func recordKey(userID, tokenID string) string {
	return userID + ":" + tokenID
}

func (fs *FakeSessionStore) Create(_ context.Context, session sessions.Session, _ time.Duration) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return sessions.ErrStoreUnavailable
	}
	fs.records[recordKey(session.UserID, session.TokenID)] = session
	return nil
}

func (fs *FakeSessionStore) Get(_ context.Context, userID, tokenID string) (*sessions.Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return nil, sessions.ErrStoreUnavailable
	}
	session, ok := fs.records[recordKey(userID, tokenID)]
	if !ok || fs.NowFunc().After(session.ExpiresAt) {
		return nil, sessions.ErrSessionNotFound
	}
	return &session, nil
}

func (fs *FakeSessionStore) Rotate(_ context.Context, userID, oldTokenID string, newSession sessions.Session, _ time.Duration) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return sessions.ErrStoreUnavailable
	}
	oldKey := recordKey(userID, oldTokenID)
	if _, ok := fs.records[oldKey]; !ok {
		return sessions.ErrSessionNotFound
	}
	delete(fs.records, oldKey)
	fs.records[recordKey(newSession.UserID, newSession.TokenID)] = newSession
	return nil
}

func (fs *FakeSessionStore) Revoke(_ context.Context, userID, tokenID string) (bool, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return false, sessions.ErrStoreUnavailable
	}
	key := recordKey(userID, tokenID)
	if _, ok := fs.records[key]; !ok {
		return false, nil
	}
	delete(fs.records, key)
	return true, nil
}

func (fs *FakeSessionStore) RevokeAll(_ context.Context, userID string) (int, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return 0, sessions.ErrStoreUnavailable
	}
	count := 0
	for key := range fs.records {
		if strings.HasPrefix(key, userID+":") {
			delete(fs.records, key)
			count++
		}
	}
	return count, nil
}

func (fs *FakeSessionStore) List(_ context.Context, userID string) ([]sessions.Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return nil, sessions.ErrStoreUnavailable
	}
	list := make([]sessions.Session, 0)
	for key, session := range fs.records {
		if strings.HasPrefix(key, userID+":") && fs.NowFunc().Before(session.ExpiresAt) {
			list = append(list, session)
		}
	}
	return list, nil
}

func (fs *FakeSessionStore) Blacklist(_ context.Context, tokenID string, ttl time.Duration) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return sessions.ErrStoreUnavailable
	}
	fs.blacklisted[tokenID] = fs.NowFunc().Add(ttl)
	return nil
}

func (fs *FakeSessionStore) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.Unavailable {
		return false, sessions.ErrStoreUnavailable
	}
	expiry, ok := fs.blacklisted[tokenID]
	return ok && fs.NowFunc().Before(expiry), nil
}
