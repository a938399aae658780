package devapi

import (
	"net/http"

	"github.com/jrsteele09/water-dashboard/users"
)

// Route paths relative to the API base path.
const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthRefresh  = "/auth/refresh"
	RouteUsersMe      = "/users/me"

	RouteDashboardKPIs    = "/dashboard/kpis"
	RouteDashboardRegions = "/dashboard/regions"
	RouteAlerts           = "/alerts"

	RouteProjects       = "/projects"
	RouteProjectsMap    = "/projects/map"
	RouteProject        = "/projects/{id}"
	RouteProjectMetrics = "/projects/{id}/metrics"

	// Served outside the base path.
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)

func (s *Server) initRoutes() {
	api := func(method, path string) string {
		return method + " " + s.basePath + path
	}
	public := s.apiMiddleware()
	authed := s.apiMiddleware(s.RequireAuth(""))

	s.RegisterRouteFunc(api("POST", RouteAuthLogin), ChainMiddleware(s.handleLogin, public...))
	s.RegisterRouteFunc(api("POST", RouteAuthRegister), ChainMiddleware(s.handleRegister, public...))
	s.RegisterRouteFunc(api("POST", RouteAuthRefresh), ChainMiddleware(s.handleRefresh, public...))
	s.RegisterRouteFunc(api("GET", RouteUsersMe), ChainMiddleware(s.handleMe, authed...))

	s.RegisterRouteFunc(api("GET", RouteDashboardKPIs), ChainMiddleware(s.handleKPIs, authed...))
	s.RegisterRouteFunc(api("GET", RouteDashboardRegions), ChainMiddleware(s.handleRegions, authed...))
	s.RegisterRouteFunc(api("GET", RouteAlerts), ChainMiddleware(s.handleAlerts, authed...))

	s.RegisterRouteFunc(api("GET", RouteProjects), ChainMiddleware(s.handleProjects, authed...))
	s.RegisterRouteFunc(api("GET", RouteProjectsMap), ChainMiddleware(s.handleProjectsMap, s.apiMiddleware(s.RequireAuth(users.PermViewMap))...))
	s.RegisterRouteFunc(api("GET", RouteProject), ChainMiddleware(s.handleProject, authed...))
	s.RegisterRouteFunc(api("GET", RouteProjectMetrics), ChainMiddleware(s.handleProjectMetrics, authed...))

	s.RegisterRouteFunc("OPTIONS "+s.basePath+"/", s.preflight)

	s.RegisterRouteHandler("GET "+RouteMetrics, s.metricsHandler())
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
