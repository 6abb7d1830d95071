package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settlement tracks the ledger effects of closing one order. The order id is
// unique, so an order can be claimed for settlement only once.
type Settlement struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	OrderID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	Status          enum.SettlementStatus `gorm:"size:30;not null;index" json:"status"`
	InventoryPolicy enum.InventoryPolicy  `gorm:"size:20;not null" json:"inventory_policy"`
	OrderTotal      decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"order_total"`
	Attempts        int                   `gorm:"not null" json:"attempts"`
	LastError       string                `gorm:"type:text" json:"last_error,omitempty"`
	CreatedBy       uuid.UUID             `gorm:"type:uuid" json:"created_by"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`

	Steps []SettlementStep `gorm:"foreignKey:SettlementID" json:"steps,omitempty"`
}

// BeforeCreate generates a UUID before creating a new settlement
func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Settlement model
func (Settlement) TableName() string {
	return "settlements"
}

// SettlementStep is one ledger call of a settlement
type SettlementStep struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	SettlementID  uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_settlement_step_key" json:"settlement_id"`
	Seq           int                `gorm:"not null" json:"seq"`
	Kind          enum.StepKind      `gorm:"size:20;not null" json:"kind"`
	Key           string             `gorm:"size:150;not null;uniqueIndex:idx_settlement_step_key" json:"key"`
	ProductID     string             `gorm:"size:100" json:"product_id,omitempty"`
	ProductName   string             `gorm:"size:255" json:"product_name,omitempty"`
	Quantity      int                `json:"quantity,omitempty"`
	PaymentMethod enum.PaymentMethod `gorm:"size:50" json:"payment_method,omitempty"`
	Amount        decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description   string             `gorm:"size:255" json:"description,omitempty"`
	CustomerID    *uuid.UUID         `gorm:"type:uuid" json:"customer_id,omitempty"`
	Status        enum.StepStatus    `gorm:"size:20;not null;index" json:"status"`
	Outcome       string             `gorm:"size:50" json:"outcome,omitempty"`
	Attempts      int                `gorm:"not null" json:"attempts"`
	LastError     string             `gorm:"type:text" json:"last_error,omitempty"`
	MovementID    *uuid.UUID         `gorm:"type:uuid" json:"movement_id,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new settlement step
func (s *SettlementStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SettlementStep model
func (SettlementStep) TableName() string {
	return "settlement_steps"
}

// LedgerKey is the idempotency key the step passes to its ledger.
func (s *SettlementStep) LedgerKey() string {
	return "settlement:" + s.ID.String()
}

// ReversalKey is the idempotency key of the compensating movement.
func (s *SettlementStep) ReversalKey() string {
	return "unwind:" + s.ID.String()
}
