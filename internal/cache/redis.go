// Package cache owns the shared Redis client. The public API uses it for mock email capture,
// and asynq keeps its own connection pool on the same server.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
)

const pingTimeout = 5 * time.Second

// ConnectRedis dials the Redis server from cfg and verifies it answers PING.
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s unreachable: %w", cfg.RedisAddr, err)
	}

	logger.Info("redis ready", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return client, nil
}

func DisconnectRedis(client *redis.Client, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	logger.Info("redis client closed")
	return nil
}
