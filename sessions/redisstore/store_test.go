package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID  = "user-1"
	otherUserID = "user-2"
)

func setupStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client), mr
}

func testSession(userID, tokenID string) sessions.Session {
	now := time.Now()
	return sessions.Session{
		UserID:       userID,
		TokenID:      tokenID,
		RefreshToken: "refresh-" + tokenID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
		Metadata:     sessions.Metadata{IP: "127.0.0.1", UserAgent: "test-agent"},
	}
}

func TestCreateAndGet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	session := testSession(testUserID, "jti-1")
	require.NoError(t, store.Create(ctx, session, time.Hour))

	got, err := store.Get(ctx, testUserID, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.TokenID, got.TokenID)
	assert.Equal(t, session.RefreshToken, got.RefreshToken)
	assert.Equal(t, session.Metadata, got.Metadata)
}

func TestCreateOverwritesSameTokenID(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	first := testSession(testUserID, "jti-1")
	require.NoError(t, store.Create(ctx, first, time.Hour))

	second := first
	second.RefreshToken = "refresh-rewritten"
	require.NoError(t, store.Create(ctx, second, time.Hour))

	got, err := store.Get(ctx, testUserID, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-rewritten", got.RefreshToken)
}

func TestGetMissingSession(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), testUserID, "unknown")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-1"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, testUserID, "jti-1")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestRotate(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "old-jti"), time.Hour))

	err := store.Rotate(ctx, testUserID, "old-jti", testSession(testUserID, "new-jti"), time.Hour)
	require.NoError(t, err)

	_, err = store.Get(ctx, testUserID, "old-jti")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)

	got, err := store.Get(ctx, testUserID, "new-jti")
	require.NoError(t, err)
	assert.Equal(t, "new-jti", got.TokenID)
}

func TestRotateFailsWhenOldSessionGone(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	err := store.Rotate(ctx, testUserID, "never-existed", testSession(testUserID, "new-jti"), time.Hour)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)

	// The loser must not have written the new record
	_, err = store.Get(ctx, testUserID, "new-jti")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestRotateExactlyOneWinner(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "old-jti"), time.Hour))

	first := store.Rotate(ctx, testUserID, "old-jti", testSession(testUserID, "winner-jti"), time.Hour)
	second := store.Rotate(ctx, testUserID, "old-jti", testSession(testUserID, "loser-jti"), time.Hour)

	require.NoError(t, first)
	require.ErrorIs(t, second, sessions.ErrSessionNotFound)

	_, err := store.Get(ctx, testUserID, "winner-jti")
	require.NoError(t, err)
	_, err = store.Get(ctx, testUserID, "loser-jti")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestRevoke(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-1"), time.Hour))

	revoked, err := store.Revoke(ctx, testUserID, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.Revoke(ctx, testUserID, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeAllLeavesOtherUsersUntouched(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-1"), time.Hour))
	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-2"), time.Hour))
	require.NoError(t, store.Create(ctx, testSession(otherUserID, "jti-3"), time.Hour))

	count, err := store.RevokeAll(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := store.List(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Get(ctx, otherUserID, "jti-3")
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-1"), time.Hour))
	require.NoError(t, store.Create(ctx, testSession(testUserID, "jti-2"), time.Hour))

	list, err := store.List(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	tokenIDs := []string{list[0].TokenID, list[1].TokenID}
	assert.ElementsMatch(t, []string{"jti-1", "jti-2"}, tokenIDs)
}

func TestBlacklist(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	blacklisted, err := store.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, store.Blacklist(ctx, "jti-1", time.Minute))

	blacklisted, err = store.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Entry expires with the revoked token's remaining lifetime
	mr.FastForward(2 * time.Minute)
	blacklisted, err = store.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redisstore.New(client)
	ctx := context.Background()

	mr.Close()

	err := store.Create(ctx, testSession(testUserID, "jti-1"), time.Hour)
	require.ErrorIs(t, err, sessions.ErrStoreUnavailable)

	_, err = store.Get(ctx, testUserID, "jti-1")
	require.ErrorIs(t, err, sessions.ErrStoreUnavailable)

	_, err = store.IsBlacklisted(ctx, "jti-1")
	require.ErrorIs(t, err, sessions.ErrStoreUnavailable)
}
