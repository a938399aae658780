package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/water-dashboard/fixtures"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/users"
)

const maxProjectsLimit = 200

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Region   string `json:"region,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type projectList struct {
	Items []fixtures.Project `json:"items"`
	Total int                `json:"total"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	profile, err := s.accounts.authenticate(req.Email, req.Password)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !profile.IsActive {
		writeDetail(w, http.StatusForbidden, "Account is deactivated")
		return
	}
	s.writeTokens(w, http.StatusOK, profile)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !strings.Contains(req.Email, "@") || len(req.Password) < 8 || strings.TrimSpace(req.FullName) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "A valid email, full name and a password of at least 8 characters are required")
		return
	}
	profile, err := s.accounts.register(req.Email, req.FullName, req.Password, req.Region, s.now())
	if errors.Is(err, errEmailTaken) {
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("registering account")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.logger.Info().Int("user_id", profile.ID).Msg("account registered")
	s.writeTokens(w, http.StatusCreated, profile)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	claims, err := s.issuer.rotate(req.RefreshToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh rejected")
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	userID, _ := claims.UserID()
	profile, ok := s.accounts.get(userID)
	if !ok || !profile.IsActive {
		writeDetail(w, http.StatusUnauthorized, "User not found or inactive")
		return
	}
	s.writeTokens(w, http.StatusOK, profile)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, _ := ProfileFromContext(r.Context())
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.source.KPISnapshot(r.Context())
	s.respond(w, kpis, err)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.source.RegionSummary(r.Context())
	s.respond(w, regions, err)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.source.ListAlerts(r.Context())
	if err == nil {
		if limit, ok := intParam(r, "limit"); ok && limit >= 0 && limit < len(alerts) {
			alerts = alerts[:limit]
		}
	}
	s.respond(w, alerts, err)
}

// handleProjects lists projects with the backend's filters and paging.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.source.ListProjects(r.Context())
	if err != nil {
		s.respond(w, nil, err)
		return
	}

	q := r.URL.Query()
	filtered := projects[:0]
	for _, p := range projects {
		if v := q.Get("region"); v != "" && !strings.EqualFold(v, p.Region) {
			continue
		}
		if v := q.Get("status"); v != "" && v != p.Status {
			continue
		}
		if v := q.Get("project_type"); v != "" && v != p.ProjectType {
			continue
		}
		filtered = append(filtered, p)
	}

	skip, _ := intParam(r, "skip")
	limit, ok := intParam(r, "limit")
	if !ok {
		limit = 50
	}
	if skip < 0 || limit < 0 || limit > maxProjectsLimit {
		writeDetail(w, http.StatusUnprocessableEntity, "skip must be >= 0 and limit between 0 and 200")
		return
	}
	page := []fixtures.Project{}
	if skip < len(filtered) {
		page = filtered[skip:min(skip+limit, len(filtered))]
	}
	writeJSON(w, http.StatusOK, projectList{Items: page, Total: len(filtered)})
}

func (s *Server) handleProjectsMap(w http.ResponseWriter, r *http.Request) {
	projects, err := s.source.ListProjects(r.Context())
	if err == nil {
		located := projects[:0]
		for _, p := range projects {
			if p.HasLocation() {
				located = append(located, p)
			}
		}
		projects = located
	}
	s.respond(w, projects, err)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	project, err := s.source.GetProject(r.Context(), id)
	s.respond(w, project, err)
}

func (s *Server) handleProjectMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	metrics, err := s.source.MetricsFor(r.Context(), id)
	s.respond(w, metrics, err)
}

func (s *Server) writeTokens(w http.ResponseWriter, status int, profile users.Profile) {
	resp, err := s.issuer.issue(profile)
	if err != nil {
		s.logger.Error().Err(err).Msg("issuing tokens")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, status, resp)
}

// respond writes v, or the error mapped to its status.
func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		status := apperrors.StatusOf(err)
		if status == http.StatusInternalServerError {
			s.logger.Error().Err(err).Msg("fixture source failed")
			writeDetail(w, status, "Internal server error")
			return
		}
		writeDetail(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the backend's error shape: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
