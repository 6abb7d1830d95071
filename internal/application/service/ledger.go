package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/event"
	infraRepo "github.com/sangkips/backoffice-api/internal/infrastructure/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

const defaultMaxCommitRetries = 5

// requireActor returns the operator on whose behalf a ledger write happens
func requireActor(ctx context.Context) (infraRepo.Actor, error) {
	actor, ok := infraRepo.GetActor(ctx)
	if !ok {
		return infraRepo.Actor{}, apperror.ErrAuthenticationRequired
	}
	return actor, nil
}

// withRetry runs fn until it succeeds, fails with anything other than a
// version conflict, or has been attempted maxAttempts times.
func withRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxCommitRetries
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, apperror.ErrConcurrencyConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// publish delivers a change notification. The write it describes is already
// committed, so failures are only logged.
func publish(ctx context.Context, publisher event.Publisher, logger *zap.Logger, change event.Change) {
	if publisher == nil {
		return
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now()
	}
	if err := publisher.Publish(ctx, change); err != nil {
		logger.Warn("change notification dropped",
			zap.String("type", string(change.Type)),
			zap.String("aggregate_id", change.AggregateID),
			zap.Error(err))
	}
}
