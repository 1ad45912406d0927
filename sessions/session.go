package sessions

import "time"

// Metadata holds free-form request details captured at login time
type Metadata struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Session ties a refresh token id to a user and device metadata. The pair
// (UserID, TokenID) is the unit of trust: a refresh token is only honoured
// while its session record is live.
type Session struct {
	UserID       string    `json:"user_id"`
	TokenID      string    `json:"token_id"`
	RefreshToken string    `json:"refresh_token"`           // stored for reference, never a trust anchor on its own
	Role         string    `json:"role,omitempty"`          // carried so rotation can mint access tokens without a user lookup
	TokenVersion int       `json:"token_version,omitempty"` // carried into rotated access tokens for version-bump invalidation
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Metadata     Metadata  `json:"metadata"`
}
