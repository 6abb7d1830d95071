package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"gorm.io/gorm"
)

// InventoryItem holds the stock level of one product
type InventoryItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProductID    string    `gorm:"size:100;uniqueIndex;not null" json:"product_id"`
	ProductName  string    `gorm:"size:255;not null" json:"product_name"`
	CurrentStock int       `gorm:"not null" json:"current_stock"`
	MinStock     int       `gorm:"not null" json:"min_stock"`
	MaxStock     int       `gorm:"not null" json:"max_stock"`
	Version      int       `gorm:"not null;default:1" json:"version"`
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new inventory item
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLow reports whether the item is at or below its minimum threshold.
func (i *InventoryItem) IsLow() bool {
	return i.CurrentStock <= i.MinStock
}

// InventoryMovement is an immutable record of one stock change
type InventoryMovement struct {
	ID              uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	InventoryItemID uuid.UUID           `gorm:"type:uuid;not null;index" json:"inventory_item_id"`
	ProductID       string              `gorm:"size:100;not null;index" json:"product_id"`
	ProductName     string              `gorm:"size:255" json:"product_name"`
	Direction       enum.StockDirection `gorm:"size:10;not null" json:"direction"`
	Quantity        int                 `gorm:"not null" json:"quantity"`
	PreviousStock   int                 `gorm:"not null" json:"previous_stock"`
	NewStock        int                 `gorm:"not null" json:"new_stock"`
	Reason          string              `gorm:"size:255" json:"reason"`
	OrderID         *uuid.UUID          `gorm:"type:uuid;index" json:"order_id,omitempty"`
	IdempotencyKey  *string             `gorm:"size:150;uniqueIndex" json:"-"`
	ItemVersion     int                 `gorm:"not null" json:"item_version"`
	CreatedBy       uuid.UUID           `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time           `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new inventory movement
func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InventoryMovement model
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
