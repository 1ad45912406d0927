package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type discriminates access tokens from refresh tokens via the "typ" claim
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the payload of a signed token. Access tokens carry a role,
// optional scopes, and an optional version for coarse-grained invalidation.
// Refresh tokens carry the session ID they are paired with.
type Claims struct {
	TokenType Type     `json:"typ"`
	Role      string   `json:"role,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	Version   int      `json:"ver,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// RemainingLifetime returns how long the token stays valid from the given
// instant. Used to bound blacklist entries to the token's natural lifetime.
func (c *Claims) RemainingLifetime(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// hasRequiredClaims checks the claims every token must carry
func (c *Claims) hasRequiredClaims() bool {
	return c.Subject != "" &&
		c.ID != "" &&
		c.TokenType != "" &&
		c.ExpiresAt != nil &&
		c.IssuedAt != nil &&
		c.NotBefore != nil
}
