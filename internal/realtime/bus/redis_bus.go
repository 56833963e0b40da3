package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

const DefaultChannelPrefix = "layout"

type RedisBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewRedisPublisher publishes each session's updates on {prefix}:{session_id}.
// The client is owned by the caller.
func NewRedisPublisher(log *logger.Logger, rdb *goredis.Client, prefix string) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisBus{
		log:    log.With("service", "RedisLayoutBus"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (b *RedisBus) Channel(sessionID string) string {
	return b.prefix + ":" + sessionID
}

func (b *RedisBus) Publish(ctx context.Context, sessionID string, update layout.LayoutUpdate) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis layout bus not initialized")
	}
	raw, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.Channel(sessionID), raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, sessionID string, onMsg func(layout.LayoutUpdate)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis layout bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.Channel(sessionID))

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
				var update layout.LayoutUpdate
				if err := json.Unmarshal([]byte(m.Payload), &update); err != nil {
					b.log.Warn("bad layout payload", "error", err)
					continue
				}
				onMsg(update)
			}
		}
	}()

	return nil
}

// Close is a no-op; the shared client is closed by its owner.
func (b *RedisBus) Close() error { return nil }
