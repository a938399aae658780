package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/mockapi"
	"github.com/jrsteele09/water-dashboard/tokens"
)

// plan is the pre-dispatch decision for a tagged request.
type plan int

const (
	planProceed plan = iota
	planServeMock
)

// outcome is the post-dispatch decision for a network response.
type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeServeMock
	outcomeRefresh
	outcomeFail
)

func (o outcome) String() string {
	switch o {
	case outcomeSucceeded:
		return "succeeded"
	case outcomeServeMock:
		return "serve_mock"
	case outcomeRefresh:
		return "refresh"
	}
	return "fail"
}

// planFor diverts demo sessions to the mock service before any network I/O.
func planFor(token string) plan {
	if mockapi.IsDemoToken(token) {
		return planServeMock
	}
	return planProceed
}

// classify picks what to do with a transport result. The backend being
// unavailable takes precedence over an authentication failure.
func classify(resp *Response, err error, retried bool) outcome {
	switch {
	case err != nil || resp == nil:
		return outcomeServeMock
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return outcomeSucceeded
	case apperrors.IsUpstreamStatus(resp.StatusCode):
		return outcomeServeMock
	case resp.StatusCode == http.StatusUnauthorized && !retried:
		return outcomeRefresh
	}
	return outcomeFail
}

// Do runs a request through the pipeline. The caller's Request is not modified.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	r := *req
	r.Method = strings.ToUpper(r.Method)
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	r.Header = req.Header.Clone()
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}
	r.retried = false

	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, &r, body)
}

func (c *Client) do(ctx context.Context, req *Request, body []byte) (*Response, error) {
	token := c.authorize(ctx, req)
	logger := c.logger.With().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Logger()

	if planFor(token) == planServeMock {
		c.metrics.request(labelMockShortCircuit)
		logger.Debug().Msg("demo session, serving from mock")
		return c.serveMock(ctx, req, body, token)
	}

	httpReq, err := c.newHTTPRequest(ctx, req, body)
	if err != nil {
		c.metrics.request(labelFailed)
		return nil, err
	}
	resp, err := c.send(req, httpReq)
	if err != nil && ctx.Err() != nil {
		c.metrics.request(labelFailed)
		return nil, ctx.Err()
	}

	decision := classify(resp, err, req.retried)
	logger.Debug().Stringer("outcome", decision).Bool("retried", req.retried).Msg("classified response")
	switch decision {
	case outcomeSucceeded:
		c.metrics.request(labelNetwork)
		return resp, nil
	case outcomeServeMock:
		c.metrics.request(labelMockFallback)
		ev := logger.Warn()
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", resp.StatusCode)
		}
		ev.Msg("backend unavailable, serving from mock")
		return c.serveMock(ctx, req, body, token)
	case outcomeRefresh:
		return c.refreshAndRetry(ctx, req, body, token, responseError(resp))
	default:
		c.metrics.request(labelFailed)
		logger.Debug().Int("status", resp.StatusCode).Msg("request failed")
		return nil, responseError(resp)
	}
}

// authorize tags the request with the stored access token and returns it.
func (c *Client) authorize(ctx context.Context, req *Request) string {
	token, ok := c.store.Get(ctx, tokens.AccessTokenKey)
	if !ok {
		req.Header.Del(HeaderAuthorization)
		return ""
	}
	req.Header.Set(HeaderAuthorization, "Bearer "+token)
	return token
}

// newHTTPRequest builds the outbound request. Its failures are caller errors,
// never a sign the backend is down.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header = req.Header.Clone()
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		httpReq.Header.Set(HeaderContentType, contentTypeJSON)
	}
	return httpReq, nil
}

// send runs httpReq on the transport. An error here means no response arrived.
func (c *Client) send(req *Request, httpReq *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data, Request: req}, nil
}

func (c *Client) url(req *Request) string {
	u := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}
	return u
}

// mockPath is the path handed to the mock service, query included.
func (req *Request) mockPath() string {
	if len(req.Query) == 0 {
		return req.Path
	}
	return req.Path + "?" + req.Query.Encode()
}

// serveMock answers from the mock service with a synthetic 200.
func (c *Client) serveMock(ctx context.Context, req *Request, body []byte, token string) (*Response, error) {
	v, err := c.mock.Dispatch(ctx, req.Method, req.mockPath(), body, token)
	if err != nil {
		return nil, mockError(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &apperrors.APIError{Status: http.StatusInternalServerError, Message: "Mock error"}
	}
	return &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{HeaderContentType: []string{contentTypeJSON}},
		Body:       data,
		Request:    req,
		Mocked:     true,
	}, nil
}

// mockError gives every mock failure the response-shaped error type.
func mockError(err error) error {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) {
		out := *apiErr
		if out.Status == 0 {
			out.Status = http.StatusInternalServerError
		}
		if out.Message == "" {
			out.Message = "Mock error"
		}
		return &out
	}
	msg := err.Error()
	if msg == "" {
		msg = "Mock error"
	}
	return &apperrors.APIError{Status: apperrors.StatusOf(err), Message: msg}
}

// responseError builds the error for a non-2xx response. The message is the
// backend's "detail" when it sent one.
func responseError(resp *Response) error {
	msg := strings.TrimSpace(string(resp.Body))
	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body, &payload) == nil {
		switch d := payload.Detail.(type) {
		case string:
			msg = d
		case nil:
			if payload.Message != "" {
				msg = payload.Message
			}
		default:
			if b, err := json.Marshal(d); err == nil {
				msg = string(b)
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &apperrors.APIError{Status: resp.StatusCode, Message: msg, Body: resp.Body}
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return data, nil
}
