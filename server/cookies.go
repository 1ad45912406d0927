package server

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token
const RefreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the refresh/logout endpoints in
// production; development keeps it app-wide for easier local tooling
func (s *Server) refreshCookiePath() string {
	if s.env == "DEV" {
		return "/"
	}
	return "/auth"
}

// SetRefreshCookie issues the refresh token cookie to the client
func (s *Server) SetRefreshCookie(w http.ResponseWriter, refreshToken string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     s.refreshCookiePath(),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshCookie removes the refresh token cookie from the client
func (s *Server) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     s.refreshCookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}
