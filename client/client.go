// Package client is the dashboard's HTTP client for the water infrastructure
// API. Every call is tagged with the stored bearer token. Demo sessions and
// unreachable backends are answered by a local mock service, and an expired
// access token is refreshed once before the call is retried.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/mockapi"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"

	contentTypeJSON = "application/json"
	loginPath       = "/login"
	refreshPath     = "/auth/refresh"
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher answers a call without the network. *mockapi.Service satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, method, path string, body []byte, token string) (any, error)
}

// LoginRedirector is told when the session is gone and the user must sign in again.
type LoginRedirector interface {
	RedirectToLogin(ctx context.Context, path string)
}

// RedirectFunc adapts a function to LoginRedirector.
type RedirectFunc func(ctx context.Context, path string)

func (f RedirectFunc) RedirectToLogin(ctx context.Context, path string) {
	f(ctx, path)
}

// Request describes one logical API call. Path is relative to the base URL and
// may carry a query string; Query is appended to it. Body is sent as JSON;
// []byte and json.RawMessage bodies are sent as-is.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	retried bool
}

// Response is what the caller gets back whether the network or the mock
// service answered.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Request    *Request
	Mocked     bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", r.Request.Method, r.Request.Path, err)
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	baseURL     string
	store       tokens.Store
	http        Doer
	refreshHTTP Doer
	mock        Dispatcher
	redirector  LoginRedirector
	logger      zerolog.Logger
	userAgent   string
	metrics     *metrics

	refreshGroup singleflight.Group
}

type Option func(*Client)

// WithBaseURL sets the API root, e.g. http://localhost:8000/api/v1.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the transport used for API calls.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithRefreshHTTPClient sets the transport used for token refresh. It defaults
// to the API transport.
func WithRefreshHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.refreshHTTP = d
	}
}

func WithMockService(d Dispatcher) Option {
	return func(c *Client) {
		c.mock = d
	}
}

func WithLoginRedirector(r LoginRedirector) Option {
	return func(c *Client) {
		c.redirector = r
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics registers the client's counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = newMetrics(reg)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a client over the given token store. Without options it talks to
// the default API URL and falls back to the built-in mock service.
func New(store tokens.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    config.DefaultAPIBaseURL,
		store:      store,
		http:       &http.Client{Timeout: 15 * time.Second},
		redirector: RedirectFunc(func(context.Context, string) {}),
		logger:     log.Logger,
		userAgent:  "water-dashboard",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refreshHTTP == nil {
		c.refreshHTTP = c.http
	}
	if c.mock == nil {
		c.mock = mockapi.New(mockapi.WithLogger(c.logger))
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c
}

// BaseURL returns the API root the client sends to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}
