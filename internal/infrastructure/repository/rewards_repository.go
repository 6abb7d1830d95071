package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type rewardsRepository struct {
	db *gorm.DB
}

// NewRewardsRepository creates a new rewards repository
func NewRewardsRepository(db *gorm.DB) domainRepo.RewardsRepository {
	return &rewardsRepository{db: db}
}

func (r *rewardsRepository) GetConfig(ctx context.Context) (*entity.RewardsConfig, error) {
	var cfg entity.RewardsConfig
	err := r.db.WithContext(ctx).First(&cfg, "key = ?", entity.DefaultRewardsConfigKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cfg, err
}

func (r *rewardsRepository) SaveConfig(ctx context.Context, cfg *entity.RewardsConfig) error {
	cfg.Key = entity.DefaultRewardsConfigKey
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *rewardsRepository) GetMovementByKey(ctx context.Context, key string) (*entity.RewardMovement, error) {
	var movement entity.RewardMovement
	err := r.db.WithContext(ctx).First(&movement, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &movement, err
}

func (r *rewardsRepository) ListMovements(ctx context.Context, customerID uuid.UUID) ([]entity.RewardMovement, error) {
	var movements []entity.RewardMovement
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&movements).Error
	return movements, err
}

func (r *rewardsRepository) AddPurchasePoints(ctx context.Context, customerID uuid.UUID, movement *entity.RewardMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&entity.Customer{}).Where("id = ?", customerID)
		if movement.Points < 0 {
			query = query.Where("purchase_points >= ?", -movement.Points)
		}
		result := query.Updates(map[string]interface{}{
			"purchase_points": gorm.Expr("purchase_points + ?", movement.Points),
			"version":         gorm.Expr("version + 1"),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if movement.Points < 0 {
				return apperror.ErrInsufficientPoints
			}
			return apperror.NewNotFoundError("Customer")
		}
		return tx.Create(movement).Error
	})
}

func (r *rewardsRepository) GrantReferral(ctx context.Context, grant *entity.ReferralGrant, movement *entity.RewardMovement) (bool, error) {
	granted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referrer_id"}, {Name: "referred_customer_id"}},
			DoNothing: true,
		}).Create(grant)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		result = tx.Model(&entity.Customer{}).
			Where("id = ?", grant.ReferrerID).
			Updates(map[string]interface{}{
				"referral_points": gorm.Expr("referral_points + ?", movement.Points),
				"referral_count":  gorm.Expr("referral_count + 1"),
				"version":         gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.NewNotFoundError("Referrer")
		}
		if err := tx.Create(movement).Error; err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

func (r *rewardsRepository) CountReferralGrantsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ReferralGrant{}).
		Where("referrer_id = ? AND created_at >= ?", referrerID, since).
		Count(&count).Error
	return count, err
}

func (r *rewardsRepository) ListReferralGrants(ctx context.Context, referrerID uuid.UUID) ([]entity.ReferralGrant, error) {
	var grants []entity.ReferralGrant
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *rewardsRepository) Redeem(ctx context.Context, customer *entity.Customer, expectedVersion int, redemption *entity.RewardRedemption, movement *entity.RewardMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Customer{}).
			Where("id = ? AND version = ?", customer.ID, expectedVersion).
			Updates(map[string]interface{}{
				"purchase_points": customer.PurchasePoints,
				"referral_points": customer.ReferralPoints,
				"version":         customer.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrConcurrencyConflict
		}
		if err := tx.Create(redemption).Error; err != nil {
			return err
		}
		return tx.Create(movement).Error
	})
}

func (r *rewardsRepository) ListRedemptions(ctx context.Context, customerID uuid.UUID) ([]entity.RewardRedemption, error) {
	var redemptions []entity.RewardRedemption
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&redemptions).Error
	return redemptions, err
}

func (r *rewardsRepository) CountRedemptionsSince(ctx context.Context, customerID uuid.UUID, since time.Time, superPrize bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RewardRedemption{}).
		Where("customer_id = ? AND created_at >= ? AND is_super_prize = ?", customerID, since, superPrize).
		Count(&count).Error
	return count, err
}

func (r *rewardsRepository) GetActiveSuperPrizeControl(ctx context.Context, customerID uuid.UUID, at time.Time) (*entity.SuperPrizeControl, error) {
	var control entity.SuperPrizeControl
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND period_end >= ?", customerID, at).
		Order("period_end DESC").
		First(&control).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &control, err
}

func (r *rewardsRepository) CreateSuperPrizeControl(ctx context.Context, control *entity.SuperPrizeControl) error {
	return r.db.WithContext(ctx).Create(control).Error
}

func (r *rewardsRepository) CreatePrize(ctx context.Context, prize *entity.Prize) error {
	return r.db.WithContext(ctx).Create(prize).Error
}

func (r *rewardsRepository) GetPrize(ctx context.Context, id uuid.UUID) (*entity.Prize, error) {
	var prize entity.Prize
	err := r.db.WithContext(ctx).First(&prize, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &prize, err
}

func (r *rewardsRepository) ListActivePrizes(ctx context.Context) ([]entity.Prize, error) {
	var prizes []entity.Prize
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("points_required ASC").
		Find(&prizes).Error
	return prizes, err
}

func (r *rewardsRepository) DeactivatePrize(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Prize{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFoundError("Prize")
	}
	return nil
}
