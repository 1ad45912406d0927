package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject = "user-1"
	testRole    = "user"
	testSession = "session-1"
)

func newTestSigner(t *testing.T) keys.Signer {
	t.Helper()
	keyPair, err := keys.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	return keys.NewKeyPairSigner(keyPair)
}

func TestIssueAccessRoundTrip(t *testing.T) {
	m := token.New(newTestSigner(t))

	raw, issued, err := m.IssueAccess(testSubject, testRole, token.WithScopes("read", "write"), token.WithVersion(1))
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := m.Verify(raw, token.TypeAccess)
	require.NoError(t, err)

	assert.Equal(t, testSubject, claims.Subject)
	assert.Equal(t, testRole, claims.Role)
	assert.Equal(t, token.TypeAccess, claims.TokenType)
	assert.Equal(t, []string{"read", "write"}, claims.Scopes)
	assert.Equal(t, 1, claims.Version)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueRefreshRoundTrip(t *testing.T) {
	m := token.New(newTestSigner(t), token.WithTokenExpiry(15*time.Minute, 14*24*time.Hour))

	raw, _, err := m.IssueRefresh(testSubject, testSession)
	require.NoError(t, err)

	claims, err := m.Verify(raw, token.TypeRefresh)
	require.NoError(t, err)

	assert.Equal(t, testSubject, claims.Subject)
	assert.Equal(t, testSession, claims.SessionID)
	assert.Equal(t, token.TypeRefresh, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyRejectsWrongKeyPair(t *testing.T) {
	issuing := token.New(newTestSigner(t))
	verifying := token.New(newTestSigner(t))

	raw, _, err := issuing.IssueAccess(testSubject, testRole)
	require.NoError(t, err)

	_, err = verifying.Verify(raw, token.TypeAccess)
	require.ErrorIs(t, err, token.ErrTokenInvalidSignature)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Now()
	issuing := token.New(signer, token.WithNowFunc(func() time.Time {
		return now.Add(-time.Hour)
	}))

	raw, _, err := issuing.IssueAccess(testSubject, testRole, token.WithTTL(time.Minute))
	require.NoError(t, err)

	verifying := token.New(signer, token.WithNowFunc(func() time.Time {
		return now
	}))
	_, err = verifying.Verify(raw, token.TypeAccess)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsNotYetValidToken(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Now()
	issuing := token.New(signer, token.WithNowFunc(func() time.Time {
		return now.Add(time.Hour)
	}))

	raw, _, err := issuing.IssueAccess(testSubject, testRole)
	require.NoError(t, err)

	verifying := token.New(signer, token.WithNowFunc(func() time.Time {
		return now
	}))
	_, err = verifying.Verify(raw, token.TypeAccess)
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestVerifyRejectsTypeMismatch(t *testing.T) {
	m := token.New(newTestSigner(t))

	refresh, _, err := m.IssueRefresh(testSubject, testSession)
	require.NoError(t, err)
	access, _, err := m.IssueAccess(testSubject, testRole)
	require.NoError(t, err)

	_, err = m.Verify(refresh, token.TypeAccess)
	require.ErrorIs(t, err, token.ErrTokenTypeMismatch)

	_, err = m.Verify(access, token.TypeRefresh)
	require.ErrorIs(t, err, token.ErrTokenTypeMismatch)

	// Empty expected type skips the check
	_, err = m.Verify(refresh, "")
	require.NoError(t, err)
}

func TestVerifyRejectsAlgorithmConfusion(t *testing.T) {
	m := token.New(newTestSigner(t))

	// A token asserting HS256 must never verify, even with a valid shape
	forged := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": testSubject,
		"typ": "access",
		"jti": "forged",
		"iat": time.Now().Unix(),
		"nbf": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := forged.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw, token.TypeAccess)
	require.Error(t, err)
	assert.NotErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := token.New(newTestSigner(t))

	_, err := m.Verify("not-a-token", token.TypeAccess)
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestIssueWithoutSignerFails(t *testing.T) {
	m := token.New(nil)

	_, _, err := m.IssueAccess(testSubject, testRole)
	require.ErrorIs(t, err, token.ErrSigningUnavailable)

	_, _, err = m.IssueRefresh(testSubject, testSession)
	require.ErrorIs(t, err, token.ErrSigningUnavailable)

	_, err = m.Verify("anything", token.TypeAccess)
	require.ErrorIs(t, err, token.ErrSigningUnavailable)
}
