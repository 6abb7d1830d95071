package repository

import (
	"context"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit event repository
func NewAuditRepository(db *gorm.DB) domainRepo.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, event *entity.LedgerAuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *auditRepository) List(ctx context.Context, params *pagination.PaginationParams, kind *enum.AuditKind) ([]entity.LedgerAuditEvent, int64, error) {
	var events []entity.LedgerAuditEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.LedgerAuditEvent{})
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("created_at DESC").
		Find(&events).Error

	return events, total, err
}
