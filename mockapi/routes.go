package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/jrsteele09/water-dashboard/fixtures"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
)

var (
	versionPrefix = regexp.MustCompile(`^/api/v\d+`)
	projectPath   = regexp.MustCompile(`^/projects/(\d+)$`)
	metricsPath   = regexp.MustCompile(`^/projects/(\d+)/metrics`)
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// ProjectPage is the paginated project listing.
type ProjectPage struct {
	Items []fixtures.Project `json:"items"`
	Total int                `json:"total"`
}

// NormalizePath reduces a request path to its route key: a leading slash, no
// query string, no /api/vN prefix, no trailing slash.
func NormalizePath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = versionPrefix.ReplaceAllString(path, "")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}

// Dispatch answers one API call. The result is a JSON-encodable value; failures
// are *errors.APIError carrying the status the backend would have used.
func (s *Service) Dispatch(ctx context.Context, method, path string, body []byte, token string) (any, error) {
	method = strings.ToUpper(method)
	route := NormalizePath(path)
	s.logger.Debug().Str("method", method).Str("route", route).Msg("mock dispatch")

	switch method {
	case http.MethodPost:
		switch route {
		case "/auth/login":
			var req loginBody
			if err := decodeBody(body, &req); err != nil {
				return nil, err
			}
			session, err := s.Login(req.Email, req.Password)
			if err != nil {
				return nil, err
			}
			return session.Response(), nil
		case "/auth/refresh":
			var req refreshBody
			if err := decodeBody(body, &req); err != nil {
				return nil, err
			}
			session, err := s.Refresh(req.RefreshToken)
			if err != nil {
				return nil, err
			}
			return session.Response(), nil
		}
	case http.MethodGet:
		if v, ok, err := s.get(ctx, route, token); ok {
			return v, err
		}
	}

	if s.strict {
		return nil, apiError(http.StatusNotFound, msgNotFound)
	}
	return map[string]any{}, nil
}

// get serves the read-only routes. The bool is false when no route applies.
func (s *Service) get(ctx context.Context, route, token string) (any, bool, error) {
	switch route {
	case "/users/me":
		v, err := s.CurrentUser(token)
		return v, true, err
	case "/dashboard/kpis":
		v, err := s.source.KPISnapshot(ctx)
		return v, true, sourceError(err)
	case "/dashboard/regions":
		v, err := s.source.RegionSummary(ctx)
		return v, true, sourceError(err)
	case "/alerts":
		v, err := s.source.ListAlerts(ctx)
		return v, true, sourceError(err)
	case "/projects/map":
		v, err := s.source.ListProjects(ctx)
		return v, true, sourceError(err)
	case "/projects":
		projects, err := s.source.ListProjects(ctx)
		if err != nil {
			return nil, true, sourceError(err)
		}
		return ProjectPage{Items: projects, Total: len(projects)}, true, nil
	}

	if m := projectPath.FindStringSubmatch(route); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, true, apiError(http.StatusNotFound, msgNotFound)
		}
		v, err := s.source.GetProject(ctx, id)
		return v, true, sourceError(err)
	}
	if m := metricsPath.FindStringSubmatch(route); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, true, apiError(http.StatusNotFound, msgNotFound)
		}
		v, err := s.source.MetricsFor(ctx, id)
		return v, true, sourceError(err)
	}
	return nil, false, nil
}

func decodeBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &apperrors.APIError{Status: http.StatusBadRequest, Message: "Malformed request body", Body: body}
	}
	return nil
}

// sourceError gives fixture failures the status a backend would report.
func sourceError(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.Is(err, apperrors.ErrNotFound):
		return apiError(http.StatusNotFound, msgNotFound)
	}
	return apiError(apperrors.StatusOf(err), err.Error())
}
