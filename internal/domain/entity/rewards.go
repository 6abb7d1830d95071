package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultRewardsConfigKey is the key of the singleton rewards configuration row.
const DefaultRewardsConfigKey = "default"

// RewardsConfig holds the loyalty program rules
type RewardsConfig struct {
	Key                     string          `gorm:"size:50;primaryKey" json:"-"`
	MinPurchaseAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"min_purchase_amount"`
	PointsPerPurchase       int             `gorm:"not null" json:"points_per_purchase"`
	PointsForPrize          int             `gorm:"not null" json:"points_for_prize"`
	MaxReferralsPerMonth    int             `gorm:"not null" json:"max_referrals_per_month"`
	ReferralValidityDays    int             `gorm:"not null" json:"referral_validity_days"`
	MaxPrizeCost            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"max_prize_cost"`
	SuperPrizeRequirements  int             `gorm:"not null" json:"super_prize_requirements"`
	SuperPrizePeriodMonths  int             `gorm:"not null" json:"super_prize_period_months"`
	MaxSuperPrizesPerPeriod int             `gorm:"not null" json:"max_super_prizes_per_period"`
	SuperPrizeProductName   string          `gorm:"size:255" json:"super_prize_product_name"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// TableName returns the table name for the RewardsConfig model
func (RewardsConfig) TableName() string {
	return "rewards_config"
}

// DefaultRewardsConfig returns the program rules seeded on first start.
func DefaultRewardsConfig() RewardsConfig {
	return RewardsConfig{
		Key:                     DefaultRewardsConfigKey,
		MinPurchaseAmount:       decimal.NewFromInt(15),
		PointsPerPurchase:       1,
		PointsForPrize:          6,
		MaxReferralsPerMonth:    5,
		ReferralValidityDays:    15,
		MaxPrizeCost:            decimal.NewFromInt(12),
		SuperPrizeRequirements:  3,
		SuperPrizePeriodMonths:  2,
		MaxSuperPrizesPerPeriod: 2,
		SuperPrizeProductName:   "Hamburguesa + Milkshake Oreo",
	}
}

// RewardMovement is an immutable record of one points change
type RewardMovement struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID         uuid.UUID               `gorm:"type:uuid;not null;index" json:"customer_id"`
	Type               enum.RewardMovementType `gorm:"size:20;not null;index" json:"type"`
	Points             int                     `gorm:"not null" json:"points"`
	OrderID            *uuid.UUID              `gorm:"type:uuid;index" json:"order_id,omitempty"`
	OrderTotal         decimal.NullDecimal     `gorm:"type:decimal(12,2)" json:"order_total"`
	ReferredCustomerID *uuid.UUID              `gorm:"type:uuid;index" json:"referred_customer_id,omitempty"`
	PrizeID            *uuid.UUID              `gorm:"type:uuid" json:"prize_id,omitempty"`
	ProductsConsumed   []string                `gorm:"serializer:json;type:text" json:"products_consumed,omitempty"`
	Description        string                  `gorm:"size:255" json:"description"`
	IdempotencyKey     *string                 `gorm:"size:150;uniqueIndex" json:"-"`
	CreatedAt          time.Time               `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new reward movement
func (m *RewardMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RewardMovement model
func (RewardMovement) TableName() string {
	return "reward_movements"
}

// ReferralGrant records that a referrer was credited for a referred customer.
// The pair is unique: a referral point is granted at most once.
type ReferralGrant struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_referral_pair" json:"referrer_id"`
	ReferredCustomerID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_referral_pair" json:"referred_customer_id"`
	OrderID            *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new referral grant
func (g *ReferralGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReferralGrant model
func (ReferralGrant) TableName() string {
	return "referral_grants"
}

// Prize is a product that can be redeemed with points
type Prize struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID      string          `gorm:"size:100;not null" json:"product_id"`
	ProductName    string          `gorm:"size:255;not null" json:"product_name"`
	ProductCost    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"product_cost"`
	PointsRequired int             `gorm:"not null" json:"points_required"`
	Active         bool            `gorm:"not null;index" json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new prize
func (p *Prize) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Prize model
func (Prize) TableName() string {
	return "reward_prizes"
}

// RewardRedemption records a prize handed out against points
type RewardRedemption struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	PrizeID            uuid.UUID  `gorm:"type:uuid;not null" json:"prize_id"`
	PrizeName          string     `gorm:"size:255" json:"prize_name"`
	PointsUsed         int        `gorm:"not null" json:"points_used"`
	PurchasePointsUsed int        `gorm:"not null" json:"purchase_points_used"`
	ReferralPointsUsed int        `gorm:"not null" json:"referral_points_used"`
	OrderID            *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	IsSuperPrize       bool       `gorm:"not null" json:"is_super_prize"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new redemption
func (r *RewardRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RewardRedemption model
func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}

// SuperPrizeControl marks a customer as eligible for the periodic super prize
type SuperPrizeControl struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	PeriodStart      time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time `gorm:"not null;index" json:"period_end"`
	RedemptionsCount int       `gorm:"not null" json:"redemptions_count"`
	Used             bool      `gorm:"not null" json:"used"`
	CreatedAt        time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new control row
func (s *SuperPrizeControl) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SuperPrizeControl model
func (SuperPrizeControl) TableName() string {
	return "super_prize_controls"
}
