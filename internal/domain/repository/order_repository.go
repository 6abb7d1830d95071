package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// UpdateWithVersion writes the order only if its stored version still
	// equals expectedVersion, returning apperror.ErrConcurrencyConflict otherwise.
	UpdateWithVersion(ctx context.Context, order *entity.Order, expectedVersion int) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination    *pagination.PaginationParams
	Status        *enum.OrderStatus
	PaymentStatus *enum.PaymentStatus
	OrderType     *enum.OrderType
	CustomerID    *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
}
