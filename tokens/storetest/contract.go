// Package storetest holds the behaviour every tokens.Store backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContract exercises a fresh store returned by newStore.
func RunContract(t *testing.T, newStore func(t *testing.T) tokens.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store reports absent", func(t *testing.T) {
		s := newStore(t)
		v, ok := s.Get(ctx, tokens.AccessTokenKey)
		assert.False(t, ok)
		assert.Empty(t, v)
		_, ok = tokens.LoadSession(ctx, s)
		assert.False(t, ok)
	})

	t.Run("set get remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, tokens.AccessTokenKey, "abc"))
		v, ok := s.Get(ctx, tokens.AccessTokenKey)
		require.True(t, ok)
		assert.Equal(t, "abc", v)

		require.NoError(t, s.Remove(ctx, tokens.AccessTokenKey))
		_, ok = s.Get(ctx, tokens.AccessTokenKey)
		assert.False(t, ok)
	})

	t.Run("remove of missing key is not an error", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Remove(ctx, tokens.RefreshTokenKey))
	})

	t.Run("session round trip and clear", func(t *testing.T) {
		s := newStore(t)
		want := tokens.Session{AccessToken: "a1", RefreshToken: "r1"}
		require.NoError(t, tokens.SaveSession(ctx, s, want))

		got, ok := tokens.LoadSession(ctx, s)
		require.True(t, ok)
		assert.Equal(t, want, got)

		require.NoError(t, tokens.ClearSession(ctx, s))
		_, ok = tokens.LoadSession(ctx, s)
		assert.False(t, ok)
		_, ok = s.Get(ctx, tokens.RefreshTokenKey)
		assert.False(t, ok)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Set(ctx, tokens.AccessTokenKey, "same"))
				s.Get(ctx, tokens.AccessTokenKey)
			}()
		}
		wg.Wait()
		v, ok := s.Get(ctx, tokens.AccessTokenKey)
		require.True(t, ok)
		assert.Equal(t, "same", v)
	})
}
