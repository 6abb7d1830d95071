package notification

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/event"
)

func TestNopPublisher(t *testing.T) {
	err := NopPublisher{}.Publish(context.Background(), event.Change{Type: event.InventoryChanged})
	assert.NoError(t, err)
}

func TestRedisPublisherReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	p := NewRedisPublisher(client, "ledger", zap.NewNop())
	err := p.Publish(context.Background(), event.Change{
		Type:        event.AccountChanged,
		AggregateID: "efectivo",
		OccurredAt:  time.Now(),
	})
	assert.ErrorContains(t, err, "failed to publish change event")
}
