package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"gorm.io/gorm"
)

// LedgerAuditEvent records a ledger outcome that is not an error but should
// be discoverable by operators, such as an unmapped payment method.
type LedgerAuditEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Kind        enum.AuditKind `gorm:"size:50;not null;index" json:"kind"`
	SubjectType string         `gorm:"size:50" json:"subject_type"`
	SubjectID   string         `gorm:"size:100;index" json:"subject_id"`
	Message     string         `gorm:"type:text" json:"message"`
	Details     map[string]any `gorm:"serializer:json;type:text" json:"details,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new audit event
func (e *LedgerAuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LedgerAuditEvent model
func (LedgerAuditEvent) TableName() string {
	return "ledger_audit_events"
}

// SeedVersion records which version of a seed step has been applied
type SeedVersion struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Version   int       `gorm:"not null" json:"version"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName returns the table name for the SeedVersion model
func (SeedVersion) TableName() string {
	return "seed_versions"
}
