package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
	// FindEnrolledByPhone matches the phone exactly among rewards members.
	FindEnrolledByPhone(ctx context.Context, phone string) (*entity.Customer, error)
	// FindEnrolledByName matches a case-insensitive name fragment among rewards members.
	FindEnrolledByName(ctx context.Context, fragment string) (*entity.Customer, error)
	ListReferredBy(ctx context.Context, referentID uuid.UUID) ([]entity.Customer, error)
	EnableRewards(ctx context.Context, id uuid.UUID, referentID *uuid.UUID, at time.Time) error
	AcceptTerms(ctx context.Context, id uuid.UUID, at time.Time) error
}
