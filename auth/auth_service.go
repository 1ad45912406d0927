package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Sessions sessions.Store // TTL-indexed session and blacklist store
	Users    users.Verifier // External credential verification
}

// TokenPair is the result of a successful login or refresh. The TTLs let the
// HTTP layer set cookie and response expiries without re-decoding the tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Service composes credential verification, the token codec, and the session
// store into the login/refresh/logout protocols.
type Service struct {
	repos   Repos
	tokens  *token.Manager
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions store is required")
	}
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users verifier is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	service := &Service{
		repos:   repos,
		tokens:  tokens,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login verifies credentials, mints an access/refresh token pair, and records
// the session under the refresh token's id. A token pair is never returned
// without its session having been durably written.
func (s *Service) Login(ctx context.Context, identifier, password string, metadata sessions.Metadata) (*TokenPair, error) {
	user, err := s.repos.Users.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()

	accessToken, _, err := s.tokens.IssueAccess(user.ID, string(user.Role), token.WithVersion(user.TokenVersion))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] IssueAccess")
	}

	refreshToken, refreshClaims, err := s.tokens.IssueRefresh(user.ID, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] IssueRefresh")
	}

	now := s.nowTime()
	ttl := refreshClaims.RemainingLifetime(now)
	if err := s.repos.Sessions.Create(ctx, sessions.Session{
		UserID:       user.ID,
		TokenID:      refreshClaims.ID,
		RefreshToken: refreshToken,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
		CreatedAt:    now,
		ExpiresAt:    refreshClaims.ExpiresAt.Time,
		Metadata:     metadata,
	}, ttl); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] Sessions.Create")
	}

	log.Info().Str("user_id", user.ID).Str("session_id", sessionID).Msg("user logged in")

	// The session record TTL is the token's remaining lifetime, which loses
	// sub-second precision to the exp claim; the reported TTL stays the
	// configured value so cookie expiries match it exactly
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    s.tokens.AccessTokenExpiry(),
		RefreshTTL:   s.tokens.RefreshTokenExpiry(),
	}, nil
}

// Logout revokes the session behind the presented refresh token and
// blacklists its token id for the remainder of its lifetime. Both steps run
// even when the session record is already gone, so a presented token can
// never be replayed.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		log.Warn().Err(err).Msg("logout with unverifiable refresh token")
		return errors.Wrapf(ErrTokenInvalid, "verify: %v", err)
	}

	if _, err := s.repos.Sessions.Revoke(ctx, claims.Subject, claims.ID); err != nil {
		return errors.Wrap(err, "[Service.Logout] Sessions.Revoke")
	}

	if err := s.repos.Sessions.Blacklist(ctx, claims.ID, claims.RemainingLifetime(s.nowTime())); err != nil {
		return errors.Wrap(err, "[Service.Logout] Sessions.Blacklist")
	}

	log.Info().Str("user_id", claims.Subject).Str("token_id", claims.ID).Msg("session logged out")
	return nil
}

// LogoutAll revokes every session of the user and returns the count. It does
// not blacklist individual token ids: already-issued access tokens ride out
// their natural expiry unless the version claim mechanism is used.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	count, err := s.repos.Sessions.RevokeAll(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[Service.LogoutAll] Sessions.RevokeAll")
	}

	log.Info().Str("user_id", userID).Int("count", count).Msg("all sessions revoked")
	return count, nil
}

// Refresh rotates the presented refresh token: the old session record is
// atomically replaced by a new one and the old token id is blacklisted.
// Exactly one of any set of concurrent refreshes with the same token wins;
// the rest fail with ErrTokenInvalid.
func (s *Service) Refresh(ctx context.Context, refreshToken string, metadata sessions.Metadata) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		log.Warn().Err(err).Msg("refresh with unverifiable token")
		return nil, errors.Wrapf(ErrTokenInvalid, "verify: %v", err)
	}

	blacklisted, err := s.repos.Sessions.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Sessions.IsBlacklisted")
	}
	if blacklisted {
		// Reuse of a rotated-away or logged-out token
		log.Warn().Str("user_id", claims.Subject).Str("token_id", claims.ID).Msg("refresh with blacklisted token")
		return nil, ErrTokenInvalid
	}

	current, err := s.repos.Sessions.Get(ctx, claims.Subject, claims.ID)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		log.Warn().Str("user_id", claims.Subject).Str("token_id", claims.ID).Msg("refresh with no live session")
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Sessions.Get")
	}

	newSessionID := uuid.New().String()

	accessToken, _, err := s.tokens.IssueAccess(claims.Subject, current.Role, token.WithVersion(current.TokenVersion))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] IssueAccess")
	}

	newRefreshToken, newRefreshClaims, err := s.tokens.IssueRefresh(claims.Subject, newSessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] IssueRefresh")
	}

	now := s.nowTime()
	ttl := newRefreshClaims.RemainingLifetime(now)
	err = s.repos.Sessions.Rotate(ctx, claims.Subject, claims.ID, sessions.Session{
		UserID:       claims.Subject,
		TokenID:      newRefreshClaims.ID,
		RefreshToken: newRefreshToken,
		Role:         current.Role,
		TokenVersion: current.TokenVersion,
		CreatedAt:    now,
		ExpiresAt:    newRefreshClaims.ExpiresAt.Time,
		Metadata:     metadata,
	}, ttl)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		// Lost a concurrent rotation race: the winner already deleted our key
		log.Warn().Str("user_id", claims.Subject).Str("token_id", claims.ID).Msg("refresh lost rotation race")
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Sessions.Rotate")
	}

	// The old id stays blocked until the token it was minted into expires
	if err := s.repos.Sessions.Blacklist(ctx, claims.ID, claims.RemainingLifetime(now)); err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Sessions.Blacklist")
	}

	log.Info().Str("user_id", claims.Subject).Str("old_token_id", claims.ID).Str("new_token_id", newRefreshClaims.ID).Msg("refresh token rotated")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		AccessTTL:    s.tokens.AccessTokenExpiry(),
		RefreshTTL:   s.tokens.RefreshTokenExpiry(),
	}, nil
}

// ListSessions returns a snapshot of the user's live sessions
func (s *Service) ListSessions(ctx context.Context, userID string) ([]sessions.Session, error) {
	list, err := s.repos.Sessions.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListSessions] Sessions.List")
	}
	return list, nil
}

// VerifyAccess verifies an access token presented on a protected call
func (s *Service) VerifyAccess(rawToken string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(rawToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
