package request

import (
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// VerifyStockRequest asks whether the listed quantities can leave stock
type VerifyStockRequest struct {
	Lines []VerifyStockLine `json:"lines" binding:"required,min=1,dive"`
}

// VerifyStockLine is one product quantity to verify
type VerifyStockLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// StockMovementRequest records a manual stock change
type StockMovementRequest struct {
	ProductID      string              `json:"product_id" binding:"required"`
	ProductName    string              `json:"product_name"`
	Direction      enum.StockDirection `json:"direction" binding:"required,oneof=in out"`
	Quantity       int                 `json:"quantity" binding:"required,min=1"`
	Reason         string              `json:"reason" binding:"required,max=255"`
	IdempotencyKey string              `json:"idempotency_key" binding:"max=255"`
}

// UpdateLimitsRequest changes the alert thresholds of an item
type UpdateLimitsRequest struct {
	MinStock int `json:"min_stock" binding:"min=0"`
	MaxStock int `json:"max_stock" binding:"min=0"`
}

// AccountMovementRequest records a manual movement against one account
type AccountMovementRequest struct {
	Direction   enum.LedgerDirection `json:"direction" binding:"required,oneof=credit debit"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description" binding:"required,max=255"`
}

// InitialBalanceRequest sets the opening balance of an account
type InitialBalanceRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// SpendRequest records a purchase or expense paid with a payment method
type SpendRequest struct {
	PaymentMethod  enum.PaymentMethod `json:"payment_method" binding:"required"`
	Amount         decimal.Decimal    `json:"amount"`
	Description    string             `json:"description" binding:"required,max=255"`
	Reference      *string            `json:"reference" binding:"omitempty,max=100"`
	IdempotencyKey string             `json:"idempotency_key" binding:"max=255"`
}
