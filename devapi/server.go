// Package devapi is a development backend for the dashboard API. It issues
// HS256 JWT sessions for the demo accounts, rotates refresh tokens, serves the
// fixture data and can simulate an outage. Integration tests run the client
// against it.
package devapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/water-dashboard/fixtures"
	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Config is the configuration the backend reads.
type Config interface {
	config.EnvConfig
	config.DevAPIConfig
	config.CorsConfig
}

type Server struct {
	env      string
	basePath string
	mux      *http.ServeMux
	routes   []string
	config   Config
	source   fixtures.Source
	accounts *accountStore
	issuer   *issuer
	now      func() time.Time
	logger   zerolog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	outage   atomic.Int32

	directory  *users.Directory
	bcryptCost int
	signer     Signer
}

type Option func(*Server)

// WithDirectory seeds the backend with other accounts than the demo set.
func WithDirectory(d *users.Directory) Option {
	return func(s *Server) {
		s.directory = d
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.bcryptCost = cost
	}
}

// WithNowTime sets the clock used for token issue and expiry.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithSigner(signer Signer) Option {
	return func(s *Server) {
		s.signer = signer
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(cfg Config, source fixtures.Source, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[devapi New] config is required")
	}
	if source == nil {
		return nil, fmt.Errorf("[devapi New] fixture source is required")
	}

	s := &Server{
		env:        cfg.GetEnv(),
		basePath:   "/" + strings.Trim(cfg.GetAPIBasePath(), "/"),
		mux:        http.NewServeMux(),
		config:     cfg,
		source:     source,
		now:        time.Now,
		logger:     log.Logger,
		registry:   prometheus.NewRegistry(),
		directory:  users.DemoDirectory(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.basePath == "/" {
		s.basePath = ""
	}
	if s.signer == nil {
		s.signer = NewHMACSigner(cfg.GetJWTSecret())
	}

	accounts, err := newAccountStore(s.directory, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("[devapi New] seeding accounts: %w", err)
	}
	s.accounts = accounts
	s.issuer = newIssuer(s.signer, cfg.GetAccessTokenExpiry(), cfg.GetRefreshTokenExpiry(), s.now)

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "water_devapi_requests_total",
		Help: "Requests served by the development backend.",
	}, []string{"route", "status"})
	s.registry.MustRegister(s.requests, collectors.NewGoCollector())

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

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// BasePath is the prefix the API routes are served under.
func (s *Server) BasePath() string {
	return s.basePath
}

// SetOutage makes every API route answer status until ClearOutage is called.
func (s *Server) SetOutage(status int) {
	s.outage.Store(int32(status))
	s.logger.Warn().Int("status", status).Msg("outage injected")
}

func (s *Server) ClearOutage() {
	s.outage.Store(0)
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.issuer.expireAccessTokens()
	s.logger.Info().Msg("access tokens expired")
}

// SetUserActive activates or deactivates an account. It reports false when no
// account has the id.
func (s *Server) SetUserActive(id int, active bool) bool {
	return s.accounts.setActive(id, active)
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}
