package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-auth/token/keys"
	"github.com/pkg/errors"
)

// Manager issues and verifies signed access and refresh tokens
type Manager struct {
	signer             keys.Signer
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(signer keys.Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer: signer,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.refreshTokenExpiry == 0 {
		m.refreshTokenExpiry = 14 * 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// IssueOption adjusts the claims of a single issued token
type IssueOption func(*issueOptions)

type issueOptions struct {
	ttl     time.Duration
	scopes  []string
	version int
}

func WithTTL(ttl time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.ttl = ttl
	}
}

func WithScopes(scopes ...string) IssueOption {
	return func(o *issueOptions) {
		o.scopes = scopes
	}
}

func WithVersion(version int) IssueOption {
	return func(o *issueOptions) {
		o.version = version
	}
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

func (m *Manager) RefreshTokenExpiry() time.Duration {
	return m.refreshTokenExpiry
}

// IssueAccess creates a signed access token for the subject
func (m *Manager) IssueAccess(subject, role string, options ...IssueOption) (string, *Claims, error) {
	opts := issueOptions{ttl: m.accessTokenExpiry}
	for _, opt := range options {
		opt(&opts)
	}

	claims := &Claims{
		TokenType:        TypeAccess,
		Role:             role,
		Scopes:           opts.scopes,
		Version:          opts.version,
		RegisteredClaims: m.registeredClaims(subject, opts.ttl),
	}

	signed, err := m.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// IssueRefresh creates a signed refresh token bound to a session
func (m *Manager) IssueRefresh(subject, sessionID string, options ...IssueOption) (string, *Claims, error) {
	opts := issueOptions{ttl: m.refreshTokenExpiry}
	for _, opt := range options {
		opt(&opts)
	}

	claims := &Claims{
		TokenType:        TypeRefresh,
		SessionID:        sessionID,
		RegisteredClaims: m.registeredClaims(subject, opts.ttl),
	}

	signed, err := m.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// registeredClaims reads the clock exactly once so iat, nbf, and exp stay
// consistent under concurrent issuance
func (m *Manager) registeredClaims(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.nowFunc()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
}

func (m *Manager) sign(claims *Claims) (string, error) {
	if m.signer == nil {
		return "", ErrSigningUnavailable
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(ErrSigningUnavailable, err.Error())
	}
	return signed, nil
}

// Verify decodes a token, checks the signature against the loaded public key
// and declared algorithm, validates the time claims and required claims, and
// when expectedType is non-empty checks the "typ" claim matches.
func (m *Manager) Verify(rawToken string, expectedType Type) (*Claims, error) {
	if m.signer == nil {
		return nil, ErrSigningUnavailable
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey,
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	if !claims.hasRequiredClaims() {
		return nil, ErrTokenMalformed
	}

	if expectedType != "" && claims.TokenType != expectedType {
		return nil, ErrTokenTypeMismatch
	}

	return claims, nil
}
