package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-turnos/internal/models"
)

const statsKey = "turnos:stats"

// StatsCache keeps the dashboard stats line in redis for a short TTL so the
// stats endpoint does not hit the service on every poll. A nil cache is
// valid and disables caching.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached stats and whether the cache had them. Any redis
// error counts as a miss.
func (c *StatsCache) Get(ctx context.Context) (models.Stats, bool) {
	if c == nil || c.client == nil {
		return models.Stats{}, false
	}
	payload, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return models.Stats{}, false
	}
	var stats models.Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return models.Stats{}, false
	}
	return stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats models.Stats) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	c.client.Set(ctx, statsKey, payload, c.ttl)
}

// Invalidate drops the cached stats; called after every mutation so the next
// read reflects it immediately instead of waiting out the TTL.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, statsKey)
}
