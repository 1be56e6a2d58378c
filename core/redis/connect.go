// Package redis builds the go-redis client used for ephemeral dialogue state.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/core/logger"
)

// Connect creates a Redis client and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg coreconfig.RedisConfig) (*goredis.Client, error) {
	start := time.Now()

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	logger.Info(ctx, "redis", "redis.connected",
		slog.String("host", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, nil
}
