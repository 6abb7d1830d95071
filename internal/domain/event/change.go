// Package event defines the change notifications ledgers emit for read-side caches.
package event

import (
	"context"
	"time"
)

// Type names a change notification
type Type string

const (
	InventoryChanged Type = "inventory.changed"
	StockLow         Type = "inventory.low_stock"
	AccountChanged   Type = "account.changed"
	RewardsChanged   Type = "rewards.changed"
	OrderSettled     Type = "order.settled"
)

// Change is published after a ledger aggregate has been written
type Change struct {
	Type        Type           `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Publisher delivers change notifications. Delivery is best effort: the
// ledger write has already been committed when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}
