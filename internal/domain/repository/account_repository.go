package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	GetByType(ctx context.Context, accountType enum.AccountType) (*entity.Account, error)
	List(ctx context.Context) ([]entity.Account, error)
	// ApplyMovement stores the balances of account and appends movement (when
	// not nil) in one transaction, conditional on expectedVersion.
	ApplyMovement(ctx context.Context, account *entity.Account, expectedVersion int, movement *entity.AccountMovement) error
	GetMovementByKey(ctx context.Context, key string) (*entity.AccountMovement, error)
	ListMovements(ctx context.Context, params *MovementFilterParams) ([]entity.AccountMovement, int64, error)
	// ListAllMovements returns every movement of the account oldest first.
	ListAllMovements(ctx context.Context, accountID uuid.UUID) ([]entity.AccountMovement, error)
}
