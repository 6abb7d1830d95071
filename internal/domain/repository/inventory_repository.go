package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// InventoryRepository defines the interface for stock data operations
type InventoryRepository interface {
	GetItemByID(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error)
	GetItemByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error)
	// CreateItemIfAbsent inserts the item unless one already exists for its product.
	CreateItemIfAbsent(ctx context.Context, item *entity.InventoryItem) error
	ListItems(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.InventoryItem, int64, error)
	ListLowStock(ctx context.Context) ([]entity.InventoryItem, error)
	UpdateLimits(ctx context.Context, id uuid.UUID, minStock, maxStock int) error
	// ApplyMovement stores the new stock of item and appends movement in one
	// transaction. The item write is conditional on expectedVersion.
	ApplyMovement(ctx context.Context, item *entity.InventoryItem, expectedVersion int, movement *entity.InventoryMovement) error
	GetMovementByKey(ctx context.Context, key string) (*entity.InventoryMovement, error)
	ListMovements(ctx context.Context, params *MovementFilterParams) ([]entity.InventoryMovement, int64, error)
	ListMovementsByProduct(ctx context.Context, productID string) ([]entity.InventoryMovement, error)
}

// MovementFilterParams filters ledger movement listings
type MovementFilterParams struct {
	Pagination *pagination.PaginationParams
	// SubjectID is the product id for inventory and the account id for accounts.
	SubjectID string
	OrderID   *uuid.UUID
}
