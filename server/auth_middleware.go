package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores parsed access token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAccessToken validates the bearer access token and stores the
// caller's identity on the request context. Every verification failure is
// surfaced as the same generic unauthorized response.
func (s *Server) RequireAccessToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "

			authorization := r.Header.Get("Authorization")
			if !strings.HasPrefix(authorization, bearerPrefix) {
				writeUnauthorized(w)
				return
			}

			claims, err := s.auth.VerifyAccess(strings.TrimPrefix(authorization, bearerPrefix))
			if err != nil {
				log.Warn().Err(err).Msg("access token rejected")
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}
