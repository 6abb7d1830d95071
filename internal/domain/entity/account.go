package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is one payment bucket (cash drawer, wallet, bank)
type Account struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Name           string           `gorm:"size:100;not null" json:"name"`
	Type           enum.AccountType `gorm:"size:20;uniqueIndex;not null" json:"type"`
	Balance        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"balance"`
	InitialBalance decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"initial_balance"`
	Version        int              `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// AccountMovement is an immutable record of one balance change
type AccountMovement struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	AccountID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"account_id"`
	Direction       enum.LedgerDirection `gorm:"size:10;not null" json:"direction"`
	Amount          decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"amount"`
	PreviousBalance decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"previous_balance"`
	NewBalance      decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"new_balance"`
	Description     string               `gorm:"size:255" json:"description"`
	Source          enum.MovementSource  `gorm:"size:30;not null;index" json:"source"`
	SourceID        *string              `gorm:"size:100;index" json:"source_id,omitempty"`
	PaymentMethod   enum.PaymentMethod   `gorm:"size:50" json:"payment_method,omitempty"`
	IdempotencyKey  *string              `gorm:"size:150;uniqueIndex" json:"-"`
	AccountVersion  int                  `gorm:"not null" json:"account_version"`
	CreatedBy       uuid.UUID            `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time            `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new account movement
func (m *AccountMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the AccountMovement model
func (AccountMovement) TableName() string {
	return "account_movements"
}

// Signed returns the amount with the sign of its direction.
func (m *AccountMovement) Signed() decimal.Decimal {
	if m.Direction == enum.Debit {
		return m.Amount.Neg()
	}
	return m.Amount
}
