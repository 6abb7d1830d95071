package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) domainRepo.SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Claim(ctx context.Context, settlement *entity.Settlement) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
			Create(settlement)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		claimed = true
		if len(settlement.Steps) == 0 {
			return nil
		}
		for i := range settlement.Steps {
			settlement.Steps[i].SettlementID = settlement.ID
		}
		return tx.Create(&settlement.Steps).Error
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (r *settlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	var settlement entity.Settlement
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&settlement, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &settlement, err
}

func (r *settlementRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Settlement, error) {
	var settlement entity.Settlement
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&settlement, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &settlement, err
}

func (r *settlementRepository) List(ctx context.Context, params *pagination.PaginationParams, status *enum.SettlementStatus) ([]entity.Settlement, int64, error) {
	var settlements []entity.Settlement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Settlement{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("created_at DESC").
		Find(&settlements).Error

	return settlements, total, err
}

func (r *settlementRepository) Update(ctx context.Context, settlement *entity.Settlement) error {
	return r.db.WithContext(ctx).Model(settlement).
		Select("status", "attempts", "last_error", "completed_at", "updated_at").
		Updates(settlement).Error
}

func (r *settlementRepository) UpdateStep(ctx context.Context, step *entity.SettlementStep) error {
	return r.db.WithContext(ctx).Model(step).
		Select("status", "outcome", "attempts", "last_error", "movement_id", "completed_at", "updated_at").
		Updates(step).Error
}
