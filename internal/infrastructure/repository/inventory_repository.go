package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB) domainRepo.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *inventoryRepository) GetItemByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *inventoryRepository) CreateItemIfAbsent(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "product_id"}}, DoNothing: true}).
		Create(item).Error
}

func (r *inventoryRepository) ListItems(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.InventoryItem, int64, error) {
	var items []entity.InventoryItem
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InventoryItem{})
	if search != "" {
		query = query.Where("LOWER(product_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("product_name ASC").
		Find(&items).Error

	return items, total, err
}

func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]entity.InventoryItem, error) {
	var items []entity.InventoryItem
	err := r.db.WithContext(ctx).
		Where("current_stock <= min_stock").
		Order("current_stock ASC, product_name ASC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepository) UpdateLimits(ctx context.Context, id uuid.UUID, minStock, maxStock int) error {
	result := r.db.WithContext(ctx).Model(&entity.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"min_stock": minStock,
			"max_stock": maxStock,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFoundError("Inventory item")
	}
	return nil
}

func (r *inventoryRepository) ApplyMovement(ctx context.Context, item *entity.InventoryItem, expectedVersion int, movement *entity.InventoryMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.InventoryItem{}).
			Where("id = ? AND version = ?", item.ID, expectedVersion).
			Updates(map[string]interface{}{
				"current_stock": item.CurrentStock,
				"product_name":  item.ProductName,
				"version":       item.Version,
				"last_updated":  item.LastUpdated,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrConcurrencyConflict
		}
		return tx.Create(movement).Error
	})
}

func (r *inventoryRepository) GetMovementByKey(ctx context.Context, key string) (*entity.InventoryMovement, error) {
	var movement entity.InventoryMovement
	err := r.db.WithContext(ctx).First(&movement, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &movement, err
}

func (r *inventoryRepository) ListMovements(ctx context.Context, params *domainRepo.MovementFilterParams) ([]entity.InventoryMovement, int64, error) {
	var movements []entity.InventoryMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InventoryMovement{})
	if params.SubjectID != "" {
		query = query.Where("product_id = ?", params.SubjectID)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}

func (r *inventoryRepository) ListMovementsByProduct(ctx context.Context, productID string) ([]entity.InventoryMovement, error) {
	var movements []entity.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("item_version ASC").
		Find(&movements).Error
	return movements, err
}
