package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

// MetricsCache keeps recently fetched analytics in Redis so repeated
// dashboard loads do not burn platform API quota. A nil client turns
// every lookup into a miss and every write into a no-op.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMetricsCache(client *redis.Client, ttl time.Duration) *MetricsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MetricsCache{client: client, ttl: ttl}
}

func metricsKey(platform model.Platform, externalID string) string {
	return fmt.Sprintf("metrics:%s:%s", platform, externalID)
}

func (c *MetricsCache) Get(ctx context.Context, platform model.Platform, externalID string) (*model.PostMetrics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, metricsKey(platform, externalID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("metrics cache read failed")
		return nil, false
	}
	var metrics model.PostMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}

func (c *MetricsCache) Set(ctx context.Context, platform model.Platform, externalID string, metrics model.PostMetrics) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, metricsKey(platform, externalID), raw, c.ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("metrics cache write failed")
	}
}

func (c *MetricsCache) Invalidate(ctx context.Context, platform model.Platform, externalID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, metricsKey(platform, externalID)).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("metrics cache delete failed")
	}
}
