package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache keeps rendered report payloads in Redis for a short TTL.
// Dashboards tolerate slightly stale numbers, so serving a cached report
// is in line with the approximate-consistency stance of the read path.
// A nil *ReportCache is a no-op, which is how the service runs when no
// Redis address is configured.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReportCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for one report over one window.
func Key(report, begin, end string) string {
	return fmt.Sprintf("mealmart:report:%s:%s:%s", report, begin, end)
}

// Get returns the cached payload for key, if any. Cache failures are
// logged and treated as misses.
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("report cache get failed", "key", key, "error", err)
		return nil, false
	}
	return payload, true
}

// Set stores the payload under key for the configured TTL, best-effort.
func (c *ReportCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Warn("report cache set failed", "key", key, "error", err)
	}
}
