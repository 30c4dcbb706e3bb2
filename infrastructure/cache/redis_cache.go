package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"my-publisher/infrastructure/logger"
)

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(host string, port int, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Error("redis ping failed")
		return nil, err
	}
	return client, nil
}
