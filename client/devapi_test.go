package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/water-dashboard/client"
	"github.com/jrsteele09/water-dashboard/devapi"
	"github.com/jrsteele09/water-dashboard/fixtures"
	"github.com/jrsteele09/water-dashboard/internal/config"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/memstore"
	"github.com/jrsteele09/water-dashboard/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type liveFixture struct {
	api    *devapi.Server
	client *client.Client
	store  *memstore.Store
}

func setupLiveFixture(t *testing.T) *liveFixture {
	t.Helper()
	t.Setenv("DEVAPI_JWT_SECRET", "client-test-secret")

	api, err := devapi.New(config.New(), fixtures.NewStatic(fixtures.WithSeed(7)), devapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := memstore.New()
	c := client.New(store,
		client.WithBaseURL(srv.URL+api.BasePath()),
		client.WithHTTPClient(srv.Client()),
	)
	return &liveFixture{api: api, client: c, store: store}
}

func TestLiveLoginAndCurrentUser(t *testing.T) {
	f := setupLiveFixture(t)
	ctx := context.Background()

	profile, err := f.client.Login(ctx, "manager@dawasa.go.tz", "manager123")
	require.NoError(t, err)
	assert.Equal(t, users.RoleManager, profile.Role)
	assert.Equal(t, 3, profile.ID)

	session, ok := f.client.Session(ctx)
	require.True(t, ok)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)

	resp, err := f.client.Get(ctx, "/projects/map", nil)
	require.NoError(t, err)
	assert.False(t, resp.Mocked)
}

func TestLiveExpiredAccessTokenIsRenewedTransparently(t *testing.T) {
	f := setupLiveFixture(t)
	ctx := context.Background()

	_, err := f.client.Login(ctx, "analyst@maji.go.tz", "analyst123")
	require.NoError(t, err)
	before, ok := f.client.Session(ctx)
	require.True(t, ok)

	f.api.ExpireAccessTokens()

	profile, err := f.client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "analyst@maji.go.tz", profile.Email)

	after, ok := tokens.LoadSession(ctx, f.store)
	require.True(t, ok)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
}

func TestLiveOutageIsAnsweredByMock(t *testing.T) {
	f := setupLiveFixture(t)
	ctx := context.Background()

	_, err := f.client.Login(ctx, "ceo@dawasa.go.tz", "ceo123")
	require.NoError(t, err)

	f.api.SetOutage(http.StatusServiceUnavailable)
	resp, err := f.client.Get(ctx, "/dashboard/kpis", nil)
	require.NoError(t, err)
	assert.True(t, resp.Mocked)

	var kpis fixtures.KPIs
	require.NoError(t, resp.Decode(&kpis))
	assert.NotZero(t, kpis.TotalProjects)

	f.api.ClearOutage()
	resp, err = f.client.Get(ctx, "/dashboard/kpis", nil)
	require.NoError(t, err)
	assert.False(t, resp.Mocked)
}

func TestLivePermissionDenied(t *testing.T) {
	f := setupLiveFixture(t)
	ctx := context.Background()

	_, err := f.client.Login(ctx, "operator@dawasa.go.tz", "operator123")
	require.NoError(t, err)

	_, err = f.client.Get(ctx, "/projects/map", nil)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Permission 'view:map' required", apiErr.Message)
}

func TestLiveRegister(t *testing.T) {
	f := setupLiveFixture(t)
	ctx := context.Background()

	reg := client.Registration{Email: "resident@example.com", FullName: "Resident", Password: "password1", Region: "Arusha"}
	profile, err := f.client.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, users.RolePublic, profile.Role)
	assert.Equal(t, "Arusha", profile.Region)

	_, err = f.client.Register(ctx, reg)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	profile, err = f.client.Login(ctx, "resident@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "Resident", profile.FullName)
}
