// Package cache provides the Redis hot path: the recent-event list, live
// prices, the processed-signature dedupe guard, and Pub/Sub fanout.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/constants"
	"raydium-lp-sniper/internal/models"
)

// RedisCache keeps the last N liquidity events, live token prices, and the
// short-lived processed-signature guard.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects to addr with the default DB.
func NewRedisCache(addr string, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		logger: logger,
	}
}

// NewRedisCacheFromClient wraps an existing client, used when the caller
// shares one connection across components.
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// Ping verifies connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// AddRecentEvent pushes an event onto the capped recent list.
func (r *RedisCache) AddRecentEvent(ctx context.Context, event *models.LiquidityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentEvents, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentEvents, 0, constants.MaxRecentEvents-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit cached events, newest first.
func (r *RedisCache) RecentEvents(ctx context.Context, limit int) ([]*models.LiquidityEvent, error) {
	if limit <= 0 || limit > constants.MaxRecentEvents {
		limit = constants.MaxRecentEvents
	}

	raw, err := r.client.LRange(ctx, constants.RedisKeyRecentEvents, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	events := make([]*models.LiquidityEvent, 0, len(raw))
	for _, item := range raw {
		var event models.LiquidityEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			r.logger.WithField("error", err).Warn("dropping undecodable cached event")
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}

// UpdatePrice stores the latest observed price for a token mint.
func (r *RedisCache) UpdatePrice(ctx context.Context, mint string, price float64) error {
	key := constants.RedisKeyPricePrefix + mint
	if err := r.client.Set(ctx, key, price, 0).Err(); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

// GetPrice returns the latest price for a mint, or (0, false, nil) when no
// price has been recorded.
func (r *RedisCache) GetPrice(ctx context.Context, mint string) (float64, bool, error) {
	key := constants.RedisKeyPricePrefix + mint
	price, err := r.client.Get(ctx, key).Float64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get price: %w", err)
	}
	return price, true, nil
}

// MarkProcessed records a transaction signature with a TTL. Returns true
// when the signature was first seen here, false when already marked.
func (r *RedisCache) MarkProcessed(ctx context.Context, signature string) (bool, error) {
	key := constants.RedisKeyProcessedPrefix + signature
	first, err := r.client.SetNX(ctx, key, time.Now().Unix(), constants.ProcessedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return first, nil
}

// PublishEvent fans the event out to the firehose channel and the
// pool-specific channel.
func (r *RedisCache) PublishEvent(ctx context.Context, event *models.LiquidityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channels := []string{constants.PubSubChannelAll}
	if event.Pool != nil && event.Pool.AmmID != "" {
		channels = append(channels, constants.PubSubChannelPoolPrefix+event.Pool.AmmID)
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe consumes events from a channel until ctx is cancelled.
func (r *RedisCache) Subscribe(ctx context.Context, channel string, handler func(*models.LiquidityEvent)) error {
	pubsub := r.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	r.logger.WithField("channel", channel).Info("subscribed to event channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event models.LiquidityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.WithField("error", err).Warn("dropping undecodable published event")
				continue
			}
			handler(&event)
		}
	}
}
