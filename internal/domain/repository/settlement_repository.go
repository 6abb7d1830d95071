package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// SettlementRepository defines the interface for settlement saga persistence
type SettlementRepository interface {
	// Claim creates the settlement together with its steps. It reports false
	// without writing when the order already has a settlement.
	Claim(ctx context.Context, settlement *entity.Settlement) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Settlement, error)
	List(ctx context.Context, params *pagination.PaginationParams, status *enum.SettlementStatus) ([]entity.Settlement, int64, error)
	Update(ctx context.Context, settlement *entity.Settlement) error
	UpdateStep(ctx context.Context, step *entity.SettlementStep) error
}
