package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/token/keys"
)

// StoreHealth reports backend liveness for the health endpoint
type StoreHealth func(ctx context.Context) error

type Server struct {
	env         string // Environment (e.g., "DEV", "PRODUCTION")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	auth        *auth.Service
	signer      *keys.KeyPairSigner
	storeHealth StoreHealth
}

func New(cfg config.Config, authService *auth.Service, signer *keys.KeyPairSigner, storeHealth StoreHealth) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("[Server New] signer is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		signer: signer,
	}
	s.env = cfg.GetEnv()
	s.storeHealth = storeHealth

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
