package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gamehub/apiserver/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a pinged client, or nil when REDIS_URI is unset.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.URI == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
