package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/redisstore"
	"github.com/jrsteele09/water-dashboard/tokens/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a reachable Redis; set REDIS_ADDR to run them.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := config.NewRedisClient(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStoreContract(t *testing.T) {
	rdb := redisClient(t)
	storetest.RunContract(t, func(t *testing.T) tokens.Store {
		return redisstore.New(rdb, "test-"+uuid.NewString())
	})
}

func TestRedisStoreTTL(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()
	prefix := "ttl-" + uuid.NewString()
	s := redisstore.New(rdb, prefix, redisstore.WithTTL(time.Minute))

	require.NoError(t, s.Set(ctx, tokens.AccessTokenKey, "abc"))
	ttl, err := rdb.TTL(ctx, prefix+":"+tokens.AccessTokenKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
