package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
)

// RewardsRepository defines the interface for loyalty data operations
type RewardsRepository interface {
	GetConfig(ctx context.Context) (*entity.RewardsConfig, error)
	SaveConfig(ctx context.Context, cfg *entity.RewardsConfig) error

	GetMovementByKey(ctx context.Context, key string) (*entity.RewardMovement, error)
	ListMovements(ctx context.Context, customerID uuid.UUID) ([]entity.RewardMovement, error)
	// AddPurchasePoints increments the customer's purchase points by
	// movement.Points and appends movement in one transaction. Negative points
	// fail with apperror.ErrInsufficientPoints when the counter would go below zero.
	AddPurchasePoints(ctx context.Context, customerID uuid.UUID, movement *entity.RewardMovement) error
	// GrantReferral inserts grant and credits the referrer. It reports false
	// without writing when the pair was already granted.
	GrantReferral(ctx context.Context, grant *entity.ReferralGrant, movement *entity.RewardMovement) (bool, error)
	CountReferralGrantsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int64, error)
	ListReferralGrants(ctx context.Context, referrerID uuid.UUID) ([]entity.ReferralGrant, error)

	// Redeem stores the customer's reduced counters conditional on
	// expectedVersion and appends the redemption and its movement.
	Redeem(ctx context.Context, customer *entity.Customer, expectedVersion int, redemption *entity.RewardRedemption, movement *entity.RewardMovement) error
	ListRedemptions(ctx context.Context, customerID uuid.UUID) ([]entity.RewardRedemption, error)
	CountRedemptionsSince(ctx context.Context, customerID uuid.UUID, since time.Time, superPrize bool) (int64, error)
	GetActiveSuperPrizeControl(ctx context.Context, customerID uuid.UUID, at time.Time) (*entity.SuperPrizeControl, error)
	CreateSuperPrizeControl(ctx context.Context, control *entity.SuperPrizeControl) error

	CreatePrize(ctx context.Context, prize *entity.Prize) error
	GetPrize(ctx context.Context, id uuid.UUID) (*entity.Prize, error)
	ListActivePrizes(ctx context.Context) ([]entity.Prize, error)
	DeactivatePrize(ctx context.Context, id uuid.UUID) error
}
