package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus publishes invalidations over Redis pub/sub. The client is owned
// by the caller; Close does not close it.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ch := strings.TrimSpace(channel)
	if ch == "" {
		ch = "course_package_invalidations"
	}
	return &redisBus{
		log:     log.With("service", "RedisInvalidationBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg InvalidationMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis invalidation bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m InvalidationMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis invalidation bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg InvalidationMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis invalidation payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *redisBus) Close() error { return nil }
