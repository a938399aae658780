// Package redisstore keeps tokens in Redis, for deployments where several
// dashboard processes share one session.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ tokens.Store = (*Store)(nil)

type Store struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL expires stored tokens after d. Zero (the default) keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

func New(rdb redis.UniversalClient, prefix string, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

func (s *Store) Get(ctx context.Context, name string) (string, bool) {
	v, err := s.rdb.Get(ctx, s.key(name)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", s.key(name)).Msg("redis token read failed, treating as absent")
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

func (s *Store) Set(ctx context.Context, name, value string) error {
	if err := s.rdb.Set(ctx, s.key(name), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(name), err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key(name), err)
	}
	return nil
}
