package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/memstore"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://api.test/api/v1"

// recordedCall is one request seen by the transport spy.
type recordedCall struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

// spyTransport records every request and answers with respond.
type spyTransport struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(r *http.Request) (*http.Response, error)
}

func newSpy(respond func(r *http.Request) (*http.Response, error)) *spyTransport {
	return &spyTransport{respond: respond}
}

func (s *spyTransport) Do(r *http.Request) (*http.Response, error) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Body:          string(body),
	})
	s.mu.Unlock()
	return s.respond(r)
}

func (s *spyTransport) Calls() []recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedCall(nil), s.calls...)
}

func (s *spyTransport) CallsTo(path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Path == path {
			n++
		}
	}
	return n
}

func jsonResponse(status int, v any) *http.Response {
	var body string
	switch b := v.(type) {
	case string:
		body = b
	default:
		data, _ := json.Marshal(v)
		body = string(data)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func tokenResponse(access, refresh string) *http.Response {
	return jsonResponse(http.StatusOK, tokens.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

func storeWith(t *testing.T, access, refresh string) *memstore.Store {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, store.Set(ctx, tokens.AccessTokenKey, access))
	}
	if refresh != "" {
		require.NoError(t, store.Set(ctx, tokens.RefreshTokenKey, refresh))
	}
	return store
}

// redirectRecorder counts login redirects.
type redirectRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *redirectRecorder) RedirectToLogin(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *redirectRecorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
