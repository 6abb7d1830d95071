// Package notification delivers ledger change events to read-side consumers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/event"
)

// RedisPublisher publishes change events on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher creates a publisher on an existing client. The caller owns the client.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Publish implements event.Publisher
func (p *RedisPublisher) Publish(ctx context.Context, change event.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("failed to publish change event",
			zap.String("channel", p.channel),
			zap.String("type", string(change.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	p.logger.Debug("published change event",
		zap.String("type", string(change.Type)),
		zap.String("aggregate_id", change.AggregateID))
	return nil
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements event.Publisher
func (NopPublisher) Publish(context.Context, event.Change) error { return nil }

var (
	_ event.Publisher = (*RedisPublisher)(nil)
	_ event.Publisher = NopPublisher{}
)
