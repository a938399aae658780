package mockapi_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/water-dashboard/fixtures"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/mockapi"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(opts ...mockapi.Option) *mockapi.Service {
	now := func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	src := fixtures.NewStatic(fixtures.WithClock(now), fixtures.WithSeed(1))
	return mockapi.New(append([]mockapi.Option{mockapi.WithSource(src)}, opts...)...)
}

func requireStatus(t *testing.T, err error, status int) *apperrors.APIError {
	t.Helper()
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.Status)
	return apiErr
}

func TestLoginDemoAccounts(t *testing.T) {
	svc := newService()
	for _, identity := range users.DemoDirectory().All() {
		session, err := svc.Login(identity.Profile.Email, identity.Password)
		require.NoError(t, err, identity.Profile.Email)
		assert.Equal(t, mockapi.EncodeToken(identity.Profile.Email), session.AccessToken)
		assert.Equal(t, session.AccessToken, session.RefreshToken)
	}
}

func TestLoginIsCaseInsensitive(t *testing.T) {
	session, err := newService().Login("Minister@MAJI.go.tz", "minister123")
	require.NoError(t, err)
	assert.Equal(t, mockapi.EncodeToken("minister@maji.go.tz"), session.AccessToken)
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	svc := newService()

	_, unknown := svc.Login("nobody@x.com", "x")
	_, wrong := svc.Login("minister@maji.go.tz", "wrong")

	unknownErr := requireStatus(t, unknown, http.StatusUnauthorized)
	wrongErr := requireStatus(t, wrong, http.StatusUnauthorized)
	assert.Equal(t, "Invalid email or password", unknownErr.Message)
	assert.Equal(t, unknownErr.Message, wrongErr.Message)
	assert.ErrorIs(t, unknown, apperrors.ErrUnauthorized)
}

func TestCurrentUser(t *testing.T) {
	svc := newService()

	profile, err := svc.CurrentUser(mockapi.EncodeToken("ceo@dawasa.go.tz"))
	require.NoError(t, err)
	assert.Equal(t, 2, profile.ID)
	assert.Equal(t, users.RoleCEO, profile.Role)

	_, err = svc.CurrentUser(mockapi.EncodeToken("stranger@example.com"))
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.CurrentUser("not-a-demo-token")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestCurrentUserMatchesDecodedEmailExactly(t *testing.T) {
	svc := newService()
	encode := func(email string) string {
		return mockapi.TokenPrefix + base64.StdEncoding.EncodeToString([]byte(email))
	}

	_, err := svc.CurrentUser(encode("minister@maji.go.tz"))
	require.NoError(t, err)

	_, err = svc.CurrentUser(encode("MINISTER@maji.go.tz"))
	requireStatus(t, err, http.StatusUnauthorized)
	_, err = svc.CurrentUser(encode(" minister@maji.go.tz"))
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh(t *testing.T) {
	svc := newService()
	token := mockapi.EncodeToken("analyst@maji.go.tz")

	session, err := svc.Refresh(token)
	require.NoError(t, err)
	assert.Equal(t, tokens.Session{AccessToken: token, RefreshToken: token}, session)

	_, err = svc.Refresh("live-jwt")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestDispatchAuthRoutes(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	v, err := svc.Dispatch(ctx, "post", "/api/v1/auth/login", []byte(`{"email":"operator@dawasa.go.tz","password":"operator123"}`), "")
	require.NoError(t, err)
	resp, ok := v.(tokens.TokenResponse)
	require.True(t, ok)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, mockapi.EncodeToken("operator@dawasa.go.tz"), resp.AccessToken)

	v, err = svc.Dispatch(ctx, http.MethodPost, "/auth/refresh", []byte(`{"refresh_token":"`+resp.RefreshToken+`"}`), "")
	require.NoError(t, err)
	assert.Equal(t, resp, v)

	_, err = svc.Dispatch(ctx, http.MethodPost, "/auth/login", []byte(`{not json`), "")
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.Dispatch(ctx, http.MethodPost, "/auth/refresh", nil, "")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestDispatchUsersMe(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	v, err := svc.Dispatch(ctx, http.MethodGet, "/users/me", nil, mockapi.EncodeToken("public@example.com"))
	require.NoError(t, err)
	profile, ok := v.(users.Profile)
	require.True(t, ok)
	assert.Equal(t, users.RolePublic, profile.Role)

	_, err = svc.Dispatch(ctx, http.MethodGet, "/users/me", nil, "")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestDispatchDataRoutes(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	v, err := svc.Dispatch(ctx, http.MethodGet, "/projects", nil, "")
	require.NoError(t, err)
	page, ok := v.(mockapi.ProjectPage)
	require.True(t, ok)
	assert.Equal(t, 15, page.Total)
	assert.Len(t, page.Items, 15)

	v, err = svc.Dispatch(ctx, http.MethodGet, "/projects/map", nil, "")
	require.NoError(t, err)
	assert.Len(t, v, 15)

	v, err = svc.Dispatch(ctx, http.MethodGet, "/projects/3", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Mtoni Distribution Center", v.(fixtures.Project).Name)

	_, err = svc.Dispatch(ctx, http.MethodGet, "/projects/999999", nil, "")
	requireStatus(t, err, http.StatusNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	v, err = svc.Dispatch(ctx, http.MethodGet, "/projects/42/metrics?hours=48", nil, "")
	require.NoError(t, err)
	assert.Len(t, v, 96)

	v, err = svc.Dispatch(ctx, http.MethodGet, "/dashboard/kpis", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 15, v.(fixtures.KPIs).TotalProjects)

	v, err = svc.Dispatch(ctx, http.MethodGet, "/dashboard/regions", nil, "")
	require.NoError(t, err)
	assert.Len(t, v, 8)
}

func TestDispatchNormalisesPath(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	plain, err := svc.Dispatch(ctx, http.MethodGet, "/alerts", nil, "")
	require.NoError(t, err)
	prefixed, err := svc.Dispatch(ctx, http.MethodGet, "/api/v1/alerts?limit=5", nil, "")
	require.NoError(t, err)
	assert.Equal(t, plain, prefixed)

	for _, path := range []string{"alerts", "api/v1/alerts?limit=5", "alerts/"} {
		v, err := svc.Dispatch(ctx, http.MethodGet, path, nil, "")
		require.NoError(t, err, path)
		assert.Equal(t, plain, v, path)
	}

	for path, want := range map[string]string{
		"/api/v1/alerts?limit=5": "/alerts",
		"api/v1/alerts?limit=5":  "/alerts",
		"alerts":                 "/alerts",
		"":                       "/",
		"/api/v2/projects/":      "/projects",
		"/api/v1":                "/",
		"/projects/3/metrics":    "/projects/3/metrics",
	} {
		assert.Equal(t, want, mockapi.NormalizePath(path), path)
	}
}

func TestDispatchUnmatchedRoutes(t *testing.T) {
	ctx := context.Background()

	v, err := newService().Dispatch(ctx, http.MethodGet, "/reports/monthly", nil, "")
	require.NoError(t, err)
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	v, err = newService().Dispatch(ctx, http.MethodDelete, "/projects/1", nil, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, v)

	_, err = newService(mockapi.WithStrictRoutes(true)).Dispatch(ctx, http.MethodGet, "/reports/monthly", nil, "")
	requireStatus(t, err, http.StatusNotFound)
}

func TestCustomDirectory(t *testing.T) {
	dir := users.NewDirectory(users.Identity{
		Profile:  users.Profile{ID: 9, Email: "tester@example.com", Role: users.RoleOperator, IsActive: true},
		Password: "pw",
	})
	svc := newService(mockapi.WithDirectory(dir))

	_, err := svc.Login("minister@maji.go.tz", "minister123")
	requireStatus(t, err, http.StatusUnauthorized)

	session, err := svc.Login("tester@example.com", "pw")
	require.NoError(t, err)
	profile, err := svc.CurrentUser(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 9, profile.ID)
}
