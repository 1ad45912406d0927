package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type sessionSummary struct {
	TokenID   string `json:"token_id"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// LoginHandler exchanges credentials for an access token in the body and a
// refresh token in an HTTP-only cookie
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		identifier := req.Email
		if identifier == "" {
			identifier = req.Username
		}
		if identifier == "" || req.Password == "" {
			http.Error(w, "missing credentials", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Login(r.Context(), identifier, req.Password, requestMetadata(r))
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.SetRefreshCookie(w, pair.RefreshToken, pair.RefreshTTL)
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: pair.AccessToken,
			TokenType:   "bearer",
			ExpiresIn:   int(pair.AccessTTL.Seconds()),
		})
	}
}

// RefreshHandler rotates the refresh token presented in the cookie
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshCookieName)
		if err != nil || cookie.Value == "" {
			writeUnauthorized(w)
			return
		}

		pair, err := s.auth.Refresh(r.Context(), cookie.Value, requestMetadata(r))
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.SetRefreshCookie(w, pair.RefreshToken, pair.RefreshTTL)
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: pair.AccessToken,
			TokenType:   "bearer",
			ExpiresIn:   int(pair.AccessTTL.Seconds()),
		})
	}
}

// LogoutHandler revokes the session behind the refresh cookie and clears it
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshCookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "refresh token missing", http.StatusBadRequest)
			return
		}

		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.writeError(w, err)
			return
		}

		s.ClearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// LogoutAllHandler revokes every session of the authenticated caller
func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(ContextKeyUserID).(string)
		if !ok || userID == "" {
			writeUnauthorized(w)
			return
		}

		count, err := s.auth.LogoutAll(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.ClearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]int{"revoked": count})
	}
}

// SessionsHandler lists the authenticated caller's live sessions
func (s *Server) SessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(ContextKeyUserID).(string)
		if !ok || userID == "" {
			writeUnauthorized(w)
			return
		}

		list, err := s.auth.ListSessions(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}

		summaries := make([]sessionSummary, 0, len(list))
		for _, session := range list {
			summaries = append(summaries, sessionSummary{
				TokenID:   session.TokenID,
				CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
				ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
				IP:        session.Metadata.IP,
				UserAgent: session.Metadata.UserAgent,
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// requestMetadata captures the client details recorded on the session
func requestMetadata(r *http.Request) sessions.Metadata {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}
	return sessions.Metadata{
		IP:        ip,
		UserAgent: r.UserAgent(),
	}
}

// writeError maps the error taxonomy to HTTP statuses exactly once, at this
// boundary. Token failures collapse into a generic unauthorized response so
// internal distinctions never leak to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrAuthFailed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, token.ErrTokenInvalidSignature),
		errors.Is(err, token.ErrTokenMalformed),
		errors.Is(err, token.ErrTokenTypeMismatch):
		writeUnauthorized(w)
	case errors.Is(err, sessions.ErrStoreUnavailable):
		log.Error().Err(err).Msg("session store unavailable")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("unhandled error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
