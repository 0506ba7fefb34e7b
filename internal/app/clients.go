package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type Clients struct {
	Redis goredis.UniversalClient
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return Clients{}, nil
	}
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    strings.Split(cfg.RedisAddr, ","),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return Clients{Redis: rdb}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
