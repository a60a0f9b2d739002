package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scrolla/internal/middleware"
	"scrolla/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	feedVersionKey = "feed:version"
	// FeedTTL bounds how stale a cached feed page can get if an invalidation is lost.
	FeedTTL = 30 * time.Second
)

// Cache is a JSON cache-aside layer over Redis. A nil *Cache, or one without
// a client, always falls through to the loader.
type Cache struct {
	rdb redis.Cmdable
}

// New wraps rdb. rdb may be nil.
func New(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON reads key into dest. It reports false when the key is absent.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Aside returns the cached value for key, or calls load (which must fill
// dest) and caches the result. Cache failures degrade to a direct load.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.FeedCacheResults.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.FeedCacheResults.WithLabelValues("hit").Inc()
		return nil
	case c.enabled():
		observability.FeedCacheResults.WithLabelValues("miss").Inc()
	}

	if err := load(); err != nil {
		return err
	}
	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// FeedKey names a cached feed page. Keys embed the current feed version, so
// bumping the version orphans every cached page at once.
func (c *Cache) FeedKey(ctx context.Context, mood string, kidSafe bool, page, limit int) string {
	var version int64
	if c.enabled() {
		v, err := c.rdb.Get(ctx, feedVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "feed version read failed", slog.String("error", err.Error()))
		}
		version = v
	}
	return fmt.Sprintf("feed:v%d:%s:%t:%d:%d", version, mood, kidSafe, page, limit)
}

// InvalidateFeed bumps the feed version.
func (c *Cache) InvalidateFeed(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, feedVersionKey).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "feed invalidation failed", slog.String("error", err.Error()))
	}
}
