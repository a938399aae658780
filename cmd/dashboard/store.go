package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/filestore"
	"github.com/jrsteele09/water-dashboard/tokens/memstore"
	"github.com/jrsteele09/water-dashboard/tokens/redisstore"
	"github.com/rs/zerolog/log"
)

// redisConnector is swapped in tests.
var redisConnector = config.NewRedisClient

// openStore returns the token store named by kind and a func that releases it.
func openStore(ctx context.Context, c config.ClientConfig, kind, tokenFile string) (tokens.Store, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case config.TokenStoreMemory:
		return memstore.New(), noop, nil
	case config.TokenStoreFile, "":
		log.Debug().Str("file", tokenFile).Msg("using file token store")
		return filestore.New(tokenFile), noop, nil
	case config.TokenStoreRedis:
		rdb, err := redisConnector(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis token store: %w", err)
		}
		return redisstore.New(rdb, c.GetRedisKeyPrefix()), rdb.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q (want memory, file or redis)", kind)
}
