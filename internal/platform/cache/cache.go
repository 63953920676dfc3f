package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores serialised report payloads with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const keyPrefix = "frontdesk:report:"

type Redis struct {
	c *redis.Client
}

// NewRedis parses a redis:// URL and pings the server.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Redis{c: c}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}

// Noop never stores anything. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Remember returns the cached value for key, or computes it with fn and
// stores the result. Cache failures are logged and never fail the call.
func Remember[T any](ctx context.Context, c Cache, logger zerolog.Logger, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return fn(ctx)
	}

	raw, err := c.Get(ctx, key)
	if err == nil {
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			return v, nil
		}
		logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, ErrMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
	}

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if raw, jerr := json.Marshal(v); jerr == nil {
		if serr := c.Set(ctx, key, raw, ttl); serr != nil {
			logger.Warn().Err(serr).Str("key", key).Msg("report cache write failed")
		}
	}
	return v, nil
}
