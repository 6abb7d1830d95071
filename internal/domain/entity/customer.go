package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a restaurant customer and their loyalty counters
type Customer struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name             string         `gorm:"size:255;not null" json:"name"`
	Email            *string        `gorm:"size:255" json:"email,omitempty"`
	Phone            *string        `gorm:"size:50;index" json:"phone,omitempty"`
	Address          *string        `gorm:"type:text" json:"address,omitempty"`
	RewardsEnabled   bool           `gorm:"not null;index" json:"rewards_enabled"`
	PurchasePoints   int            `gorm:"not null" json:"purchase_points"`
	ReferralPoints   int            `gorm:"not null" json:"referral_points"`
	ReferralCount    int            `gorm:"not null" json:"referral_count"`
	ReferentID       *uuid.UUID     `gorm:"type:uuid;index" json:"referent_id,omitempty"`
	TermsAccepted    bool           `gorm:"not null" json:"terms_accepted"`
	TermsAcceptedAt  *time.Time     `json:"terms_accepted_at,omitempty"`
	RewardsEnabledAt *time.Time     `json:"rewards_enabled_at,omitempty"`
	Version          int            `gorm:"not null;default:1" json:"version"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// HasPhone reports whether the customer has a usable phone number.
func (c *Customer) HasPhone() bool {
	return c.Phone != nil && strings.TrimSpace(*c.Phone) != ""
}

// TotalPoints is the spendable balance across both counters.
func (c *Customer) TotalPoints() int {
	return c.PurchasePoints + c.ReferralPoints
}

// EnrolledAt returns the rewards enrollment time, falling back to creation.
func (c *Customer) EnrolledAt() time.Time {
	if c.RewardsEnabledAt != nil {
		return *c.RewardsEnabledAt
	}
	return c.CreatedAt
}
