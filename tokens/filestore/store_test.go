package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/filestore"
	"github.com/jrsteele09/water-dashboard/tokens/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) tokens.Store {
		return filestore.New(filepath.Join(t.TempDir(), "nested", "tokens.json"))
	})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")

	require.NoError(t, tokens.SaveSession(ctx, filestore.New(path), tokens.Session{AccessToken: "a", RefreshToken: "r"}))

	got, ok := tokens.LoadSession(ctx, filestore.New(path))
	require.True(t, ok)
	assert.Equal(t, "a", got.AccessToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorruptFileReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := filestore.New(path)
	_, ok := s.Get(ctx, tokens.AccessTokenKey)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, tokens.AccessTokenKey, "fresh"))
	v, ok := s.Get(ctx, tokens.AccessTokenKey)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}
