package server

const (
	RouteAuthLogin     = "/auth/login"
	RouteAuthRefresh   = "/auth/refresh"
	RouteAuthLogout    = "/auth/logout"
	RouteAuthLogoutAll = "/auth/logout-all"
	RouteAuthSessions  = "/auth/sessions"
	RouteHealthz       = "/healthz"
	RouteWellKnownJWKS = "/.well-known/jwks.json"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Session enumeration and multi-device logout require a valid access token
	s.RegisterRouteHandler("POST "+RouteAuthLogoutAll, ChainMiddleware(s.LogoutAllHandler(), s.APIMiddleware(s.RequireAccessToken())...))
	s.RegisterRouteHandler("GET "+RouteAuthSessions, ChainMiddleware(s.SessionsHandler(), s.APIMiddleware(s.RequireAccessToken())...))

	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))
}
