package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domainRepo.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

func (r *accountRepository) GetByType(ctx context.Context, accountType enum.AccountType) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).First(&account, "type = ?", accountType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

func (r *accountRepository) List(ctx context.Context) ([]entity.Account, error) {
	var accounts []entity.Account
	err := r.db.WithContext(ctx).Order("name ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) ApplyMovement(ctx context.Context, account *entity.Account, expectedVersion int, movement *entity.AccountMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Account{}).
			Where("id = ? AND version = ?", account.ID, expectedVersion).
			Updates(map[string]interface{}{
				"balance":         account.Balance,
				"initial_balance": account.InitialBalance,
				"version":         account.Version,
				"updated_at":      account.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrConcurrencyConflict
		}
		if movement == nil {
			return nil
		}
		return tx.Create(movement).Error
	})
}

func (r *accountRepository) GetMovementByKey(ctx context.Context, key string) (*entity.AccountMovement, error) {
	var movement entity.AccountMovement
	err := r.db.WithContext(ctx).First(&movement, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &movement, err
}

func (r *accountRepository) ListMovements(ctx context.Context, params *domainRepo.MovementFilterParams) ([]entity.AccountMovement, int64, error) {
	var movements []entity.AccountMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.AccountMovement{})
	if params.SubjectID != "" {
		query = query.Where("account_id = ?", params.SubjectID)
	}
	if params.OrderID != nil {
		query = query.Where("source_id = ?", params.OrderID.String())
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}

func (r *accountRepository) ListAllMovements(ctx context.Context, accountID uuid.UUID) ([]entity.AccountMovement, error) {
	var movements []entity.AccountMovement
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("account_version ASC").
		Find(&movements).Error
	return movements, err
}
