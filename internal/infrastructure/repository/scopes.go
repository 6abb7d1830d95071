package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"gorm.io/gorm"
)

type ctxKey string

// ActorKey is the context key for the authenticated operator
const ActorKey ctxKey = "actor"

// Actor is the cashier or manager on whose behalf a ledger write happens
type Actor struct {
	ID    uuid.UUID
	Email string
}

// WithActor adds the acting operator to context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor extracts the acting operator from context
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(Actor)
	if !ok || actor.ID == uuid.Nil {
		return Actor{}, false
	}
	return actor, true
}

// Paginate returns a GORM scope applying offset and limit from params
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	return func(db *gorm.DB) *gorm.DB {
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// CreatedBetween returns a GORM scope bounding created_at by the optional dates
func CreatedBetween(start, end *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start != nil {
			db = db.Where("created_at >= ?", *start)
		}
		if end != nil {
			db = db.Where("created_at <= ?", *end)
		}
		return db
	}
}
