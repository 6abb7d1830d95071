package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
)

// IdempotencyRepository persists responses for replay of operator retries
type IdempotencyRepository interface {
	// Find returns the record for the operator's key, expired or not
	Find(ctx context.Context, actorID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	// Save stores a response, replacing an expired record for the same key.
	// Returns ErrConcurrencyConflict while a live record holds the key.
	Save(ctx context.Context, record *entity.IdempotencyKey) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
