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

var replayColumns = []string{"endpoint", "request_hash", "response_code", "response_body", "created_at", "expires_at"}

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository stores replayable responses keyed by operator and Idempotency-Key
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Find(ctx context.Context, actorID uuid.UUID, key string) (*entity.IdempotencyKey, error) {
	var record entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND key = ?", actorID, key).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save inserts the record, or overwrites a row for the same key that has
// already expired. A live row is left untouched and reported as a conflict.
func (r *idempotencyRepository) Save(ctx context.Context, record *entity.IdempotencyKey) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}, {Name: "actor_id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: `"idempotency_keys"."expires_at" < ?`, Vars: []interface{}{time.Now()}},
			}},
			DoUpdates: clause.AssignmentColumns(replayColumns),
		}).
		Create(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrConcurrencyConflict
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&entity.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
