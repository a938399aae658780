package tokens_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// failingStore refuses to write one key.
type failingStore struct {
	*memstore.Store
	failKey string
}

func (f *failingStore) Set(ctx context.Context, name, value string) error {
	if name == f.failKey {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, name, value)
}

func TestSaveSessionRollsBackOnPartialWrite(t *testing.T) {
	ctx := context.Background()
	s := &failingStore{Store: memstore.New(), failKey: tokens.RefreshTokenKey}

	err := tokens.SaveSession(ctx, s, tokens.Session{AccessToken: "a", RefreshToken: "r"})
	require.Error(t, err)

	_, ok := s.Get(ctx, tokens.AccessTokenKey)
	assert.False(t, ok, "access token must not survive a failed session write")
}

func TestSaveSessionRejectsHalfSession(t *testing.T) {
	err := tokens.SaveSession(context.Background(), memstore.New(), tokens.Session{AccessToken: "a"})
	require.Error(t, err)
}

func TestLoadSessionRequiresBothTokens(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, tokens.AccessTokenKey, "a"))

	_, ok := tokens.LoadSession(ctx, s)
	assert.False(t, ok)
}

func TestSessionFromToken(t *testing.T) {
	sess, err := tokens.SessionFromToken(&oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"})
	require.NoError(t, err)
	assert.Equal(t, tokens.Session{AccessToken: "a", RefreshToken: "r"}, sess)
	assert.Equal(t, "a", sess.OAuth2Token().AccessToken)

	_, err = tokens.SessionFromToken(&oauth2.Token{AccessToken: "a"})
	require.Error(t, err)
	_, err = tokens.SessionFromToken(&oauth2.Token{RefreshToken: "r"})
	require.Error(t, err)
	_, err = tokens.SessionFromToken(nil)
	require.Error(t, err)
}

func TestSessionResponse(t *testing.T) {
	resp := tokens.Session{AccessToken: "a", RefreshToken: "r"}.Response()
	assert.Equal(t, tokens.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}, resp)
}
