// Package cache keeps short-lived copies of the public catalog reads. Writes
// bump a generation counter instead of deleting keys, so every cached entry
// goes stale at once.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const (
	keyPrefix     = "codedot"
	generationKey = keyPrefix + ":generation"
)

type Cache interface {
	// Get loads key into dest and reports whether it was found, along with
	// the generation the lookup ran against.
	Get(ctx context.Context, key string, dest interface{}) (bool, int64, error)
	// Set stores value under gen. A value loaded before an Invalidate lands
	// in the old generation and is never read.
	Set(ctx context.Context, gen int64, key string, value interface{}) error
	// Invalidate makes every entry written so far unreachable.
	Invalidate(ctx context.Context) error
}

// New returns a redis backed cache, or a no-op cache when no redis URL is
// configured.
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	if cfg.RedisURL == "" {
		return Noop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewRedis(client, cfg.CacheTTL), nil
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, int64, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return false, 0, err
	}

	raw, err := r.client.Get(ctx, buildKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, gen, nil
	}
	if err != nil {
		return false, gen, errors.WithStack(err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, gen, errors.WithStack(err)
	}
	return true, gen, nil
}

func (r *Redis) Set(ctx context.Context, gen int64, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.client.Set(ctx, buildKey(gen, key), raw, r.ttl).Err())
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return errors.WithStack(r.client.Incr(ctx, generationKey).Err())
}

func (r *Redis) Close() error {
	return errors.WithStack(r.client.Close())
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, errors.WithStack(err)
}

func buildKey(generation int64, key string) string {
	return keyPrefix + ":" + strconv.FormatInt(generation, 10) + ":" + key
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += fmt.Sprintf("%q", p)
	}
	return out
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, int64, error) { return false, 0, nil }
func (Noop) Set(context.Context, int64, string, interface{}) error { return nil }
func (Noop) Invalidate(context.Context) error { return nil }

// Fetch returns the cached value for key or calls load and caches its
// result. Cache failures are logged and never fail the read.
func Fetch[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	var cached T
	found, gen, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("cache read failed", logger.Data{"key": key})
		return load()
	}
	if found {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, gen, key, value); err != nil {
		logger.FromContext(ctx).Err(err).Warn("cache write failed", logger.Data{"key": key})
	}
	return value, nil
}
