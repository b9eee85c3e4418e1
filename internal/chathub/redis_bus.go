package chathub

import (
	"context"
	"encoding/json"
	"fmt"

	"devmatch/backend/internal/config"
	"devmatch/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus fans messages out through a single Redis pub/sub channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBus Constructor
func NewRedisBus(rdb *redis.Client, channel string, logger *zap.Logger) (*RedisBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = config.DefaultRedisChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{rdb: rdb, channel: channel, logger: logger}, nil
}

func (b *RedisBus) Publish(ctx context.Context, msg models.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBus) StartForwarder(ctx context.Context, onMsg func(models.ChatMessage)) error {
	if onMsg == nil {
		return errForwarderRequired
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	// Receive confirms the subscription before the first publish can be missed.
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
				var msg models.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("bad redis chat payload", zap.Error(err))
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
