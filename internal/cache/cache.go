// Package cache stores small blobs across runs, in Redis when configured and
// in process memory otherwise.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/constants"
)

// Cache never returns errors: a failed lookup is a miss and a failed write is dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

type memory struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	b   []byte
	exp time.Time
}

func NewMemory() Cache {
	return &memory{m: make(map[string]entry), now: time.Now}
}

func (c *memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		return nil, false
	}
	return e.b, true
}

func (c *memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = c.now().Add(ttl)
	}
	c.m[key] = e
}

type redisCache struct {
	r      *redis.Client
	logger zerolog.Logger
}

func NewRedis(addr string, logger zerolog.Logger) Cache {
	return newRedis(addr, logger)
}

func newRedis(addr string, logger zerolog.Logger) *redisCache {
	return &redisCache{
		r:      redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, constants.CacheTimeout)
	defer cancel()
	v, err := c.r.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return v, true
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, constants.CacheTimeout)
	defer cancel()
	if err := c.r.Set(ctx, key, val, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (c *redisCache) Close() error { return c.r.Close() }

// New picks Redis when redis_addr is configured.
func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) Cache {
	if cfg.RedisAddr == "" {
		logger.Debug().Msg("using in-memory cache")
		return NewMemory()
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	c := newRedis(cfg.RedisAddr, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

var Module = fx.Provide(New)
