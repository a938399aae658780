package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the dashboard client and the development backend
var (
	// Authentication errors
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidToken      = errors.New("invalid token")
	ErrForbidden         = errors.New("forbidden")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
	ErrRefreshRejected   = errors.New("refresh rejected")
	ErrInvalidCredential = errors.New("invalid email or password")

	// Request errors
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")

	// Backend availability
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// APIError is the uniform, response-shaped error returned to callers whether the
// failure came from the network or from the mock data service.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Is lets errors.Is match an APIError against the sentinel for its status.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrUpstreamUnavailable:
		return IsUpstreamStatus(e.Status)
	}
	return false
}

// IsUpstreamStatus reports whether status is a gateway/service error that means
// the backend is unavailable.
func IsUpstreamStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusOf maps an error to the HTTP status it represents. Unknown errors are 500.
func StatusOf(err error) int {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is errors.Join, re-exported so callers importing this package don't need both.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
