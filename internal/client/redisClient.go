package client

import (
	"context"
	"fmt"
	"time"

	"gig-marketplace/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedisClient returns nil when no address is configured.
func InitRedisClient(ctx context.Context, cfg config.Redis, log *zap.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("redis disabled, delivery lock falls back to the order unique index")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	log.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
