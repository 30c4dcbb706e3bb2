package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/cache"
)

func TestNewMetricsCache(t *testing.T) {
	metricsCache := cache.NewMetricsCache(nil, time.Minute)
	assert.NotNil(t, metricsCache)
}

func TestMetricsCache_NilClientIsMiss(t *testing.T) {
	metricsCache := cache.NewMetricsCache(nil, time.Minute)

	metrics, ok := metricsCache.Get(context.Background(), model.PlatformFacebook, "fb_123")
	assert.False(t, ok)
	assert.Nil(t, metrics)

	// Writes and invalidations against a nil client must not panic.
	metricsCache.Set(context.Background(), model.PlatformFacebook, "fb_123", model.PostMetrics{Likes: 3})
	metricsCache.Invalidate(context.Background(), model.PlatformFacebook, "fb_123")
}
