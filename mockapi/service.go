// Package mockapi answers dashboard API calls locally. It backs demo sessions
// and stands in for the backend while the backend is unreachable.
package mockapi

import (
	"net/http"

	"github.com/jrsteele09/water-dashboard/fixtures"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUnauthorized       = "Unauthorized"
	msgInvalidToken       = "Invalid token"
	msgNotFound           = "Not found"
)

// Service is the mock data service. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	directory *users.Directory
	source    fixtures.Source
	strict    bool
	logger    zerolog.Logger
}

type Option func(*Service)

// WithDirectory replaces the demo identities.
func WithDirectory(d *users.Directory) Option {
	return func(s *Service) {
		s.directory = d
	}
}

// WithSource replaces the fixture data.
func WithSource(src fixtures.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStrictRoutes makes unmatched routes fail with 404 instead of answering {}.
func WithStrictRoutes(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New returns a service over the demo directory and the built-in fixtures
// unless options say otherwise.
func New(opts ...Option) *Service {
	s := &Service{logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.directory == nil {
		s.directory = users.DemoDirectory()
	}
	if s.source == nil {
		s.source = fixtures.NewStatic()
	}
	return s
}

// Login checks demo credentials. Unknown emails and wrong passwords fail with
// the same message.
func (s *Service) Login(email, password string) (tokens.Session, error) {
	identity, ok := s.directory.Lookup(email)
	if !ok || identity.Password != password {
		return tokens.Session{}, apiError(http.StatusUnauthorized, msgInvalidCredentials)
	}
	token := EncodeToken(identity.Profile.Email)
	return tokens.Session{AccessToken: token, RefreshToken: token}, nil
}

// CurrentUser resolves a demo token to its profile.
func (s *Service) CurrentUser(token string) (users.Profile, error) {
	email, ok := DecodeToken(token)
	if !ok {
		return users.Profile{}, apiError(http.StatusUnauthorized, msgUnauthorized)
	}
	identity, ok := s.directory.LookupExact(email)
	if !ok {
		return users.Profile{}, apiError(http.StatusUnauthorized, msgUnauthorized)
	}
	return identity.Profile, nil
}

// Refresh echoes a valid demo token back as both halves of a new session.
func (s *Service) Refresh(token string) (tokens.Session, error) {
	if _, ok := DecodeToken(token); !ok {
		return tokens.Session{}, apiError(http.StatusUnauthorized, msgInvalidToken)
	}
	return tokens.Session{AccessToken: token, RefreshToken: token}, nil
}

func apiError(status int, msg string) error {
	return &apperrors.APIError{Status: status, Message: msg}
}
