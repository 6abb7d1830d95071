package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest represents a customer creation request
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required,max=255"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=255"`
}

// UpdateCustomerRequest represents a customer update request
type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=255"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=255"`
}

// EnableRewardsRequest enrolls a customer, optionally naming who referred them
type EnableRewardsRequest struct {
	ReferentPhone string `json:"referent_phone" binding:"omitempty,max=20"`
	ReferentName  string `json:"referent_name" binding:"omitempty,max=255"`
}

// RedeemRequest exchanges points for a prize
type RedeemRequest struct {
	CustomerID uuid.UUID  `json:"customer_id" binding:"required"`
	PrizeID    uuid.UUID  `json:"prize_id" binding:"required"`
	OrderID    *uuid.UUID `json:"order_id"`
}

// CreatePrizeRequest adds a prize to the catalogue
type CreatePrizeRequest struct {
	ProductID      string          `json:"product_id" binding:"required"`
	ProductName    string          `json:"product_name" binding:"required,max=255"`
	ProductCost    decimal.Decimal `json:"product_cost"`
	PointsRequired int             `json:"points_required" binding:"required,min=1"`
}

// UpdateRewardsConfigRequest changes the program rules. Absent fields are kept.
type UpdateRewardsConfigRequest struct {
	MinPurchaseAmount       *decimal.Decimal `json:"min_purchase_amount"`
	PointsPerPurchase       *int             `json:"points_per_purchase"`
	PointsForPrize          *int             `json:"points_for_prize"`
	MaxReferralsPerMonth    *int             `json:"max_referrals_per_month"`
	ReferralValidityDays    *int             `json:"referral_validity_days"`
	MaxPrizeCost            *decimal.Decimal `json:"max_prize_cost"`
	SuperPrizeRequirements  *int             `json:"super_prize_requirements"`
	SuperPrizePeriodMonths  *int             `json:"super_prize_period_months"`
	MaxSuperPrizesPerPeriod *int             `json:"max_super_prizes_per_period"`
	SuperPrizeProductName   *string          `json:"super_prize_product_name"`
}
