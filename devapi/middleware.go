package devapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/water-dashboard/users"
)

type contextKey string

const contextKeyProfile contextKey = "profile"

// ProfileFromContext returns the caller authenticated by RequireAuth.
func ProfileFromContext(ctx context.Context) (users.Profile, bool) {
	p, ok := ctx.Value(contextKeyProfile).(users.Profile)
	return p, ok
}

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// apiMiddleware is the standard chain for API routes, followed by mw.
func (s *Server) apiMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chain := []func(http.HandlerFunc) http.HandlerFunc{
		s.InstrumentMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
		s.OutageMiddleware,
	}
	return append(chain, mw...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) InstrumentMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.requests.WithLabelValues(r.Pattern, strconv.Itoa(rec.status)).Inc()
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next(w, r)
	}
}

func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// No Origin header = same-origin request, no CORS headers needed
		if origin == "" {
			next(w, r)
			return
		}

		allowedOrigins := s.config.GetAllowedOrigins()
		isAllowed := allowedOrigins.IsAllowedOrigin(origin)
		isWildcard := allowedOrigins.IsAllowedOrigin("*")

		switch {
		case isAllowed:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		case isWildcard:
			// Never Allow-Credentials with a wildcard
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		next(w, r)
	}
}

// preflight answers OPTIONS for every API path.
func (s *Server) preflight(w http.ResponseWriter, r *http.Request) {
	allowedOrigins := s.config.GetAllowedOrigins()
	origin := r.Header.Get("Origin")
	if allowedOrigins.IsAllowedOrigin(origin) || allowedOrigins.IsAllowedOrigin("*") {
		w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
		w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
		w.Header().Set("Access-Control-Max-Age", "86400")
	}
	w.WriteHeader(http.StatusNoContent)
}

// OutageMiddleware answers with the injected outage status, if any.
func (s *Server) OutageMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status := int(s.outage.Load()); status != 0 {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

// RequireAuth validates the bearer access token and, when permission is not
// empty, the caller's role. The profile is loaded fresh so a deactivated
// account is refused even with a valid token.
func (s *Server) RequireAuth(permission string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := s.issuer.parse(token, tokenTypeAccess)
			if err != nil {
				s.logger.Debug().Err(err).Msg("access token rejected")
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Token missing subject")
				return
			}
			profile, ok := s.accounts.get(userID)
			if !ok || !profile.IsActive {
				writeDetail(w, http.StatusUnauthorized, "User not found or inactive")
				return
			}
			if permission != "" && !profile.Role.Can(permission) {
				writeDetail(w, http.StatusForbidden, "Permission '"+permission+"' required")
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), contextKeyProfile, profile)))
		}
	}
}
