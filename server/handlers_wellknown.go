package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// JWKSHandler serves the public signing key for resource servers that verify
// access tokens themselves
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			log.Error().Err(err).Msg("failed to build JWKS")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}

// HealthHandler reports process liveness and session store reachability
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.storeHealth != nil {
			if err := s.storeHealth(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health check: store unreachable")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
