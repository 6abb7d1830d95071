package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order represents a sale. Line items and payment splits are stored on the
// order row itself, the same shape the point-of-sale screens edit.
type Order struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	OrderType      enum.OrderType     `gorm:"size:50;not null" json:"order_type"`
	TableNumber    string             `gorm:"size:20" json:"table_number,omitempty"`
	Items          []OrderItem        `gorm:"serializer:json;type:text" json:"items"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount       decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total          decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"total"`
	Status         enum.OrderStatus   `gorm:"default:0;index" json:"status"`
	PaymentStatus  enum.PaymentStatus `gorm:"default:0;index" json:"payment_status"`
	PaymentMethods []PaymentSplit     `gorm:"serializer:json;type:text" json:"payment_methods"`
	CustomerID     *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Notes          string             `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy      uuid.UUID          `gorm:"type:uuid;not null;index" json:"created_by"`
	Version        int                `gorm:"not null;default:1" json:"version"`
	ClosedAt       *time.Time         `json:"closed_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int              `json:"quantity"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Extras    []OrderItemExtra `json:"extras,omitempty"`
	IsPack    bool             `json:"is_pack,omitempty"`
	PackItems []PackItem       `json:"pack_items,omitempty"`
}

// OrderItemExtra is a priced add-on to a line (sauces, toppings)
type OrderItemExtra struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// PackItem is one constituent of a pack line, per unit of the pack
type PackItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// PaymentSplit is the part of the total paid with one method
type PaymentSplit struct {
	Method       enum.PaymentMethod `json:"method"`
	Amount       decimal.Decimal    `json:"amount"`
	CashReceived *decimal.Decimal   `json:"cash_received,omitempty"`
	Change       *decimal.Decimal   `json:"change,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsSettled reports whether the order is closed and paid.
func (o *Order) IsSettled() bool {
	return o.Status == enum.OrderStatusClosed && o.PaymentStatus == enum.PaymentStatusPaid
}

// IsVoided reports whether the order has been voided.
func (o *Order) IsVoided() bool {
	return o.Status == enum.OrderStatusVoided
}

// ShortID returns the last six characters of the order id, as printed on tickets.
func (o *Order) ShortID() string {
	s := o.ID.String()
	return s[len(s)-6:]
}

// ProductNames lists the line names in order.
func (o *Order) ProductNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}
