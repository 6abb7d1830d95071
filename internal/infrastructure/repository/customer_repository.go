package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

// Update writes the profile fields only; loyalty counters change through the
// rewards repository.
func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Model(customer).
		Select("name", "email", "phone", "address").
		Updates(customer).Error
}

func (r *customerRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	var customers []entity.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Customer{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("name ASC").
		Find(&customers).Error

	return customers, total, err
}

func (r *customerRepository) FindEnrolledByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).
		Where("phone = ? AND rewards_enabled = ?", phone, true).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) FindEnrolledByName(ctx context.Context, fragment string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? AND rewards_enabled = ?", "%"+strings.ToLower(fragment)+"%", true).
		Order("name ASC").
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) ListReferredBy(ctx context.Context, referentID uuid.UUID) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Where("referent_id = ?", referentID).
		Order("created_at ASC").
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) EnableRewards(ctx context.Context, id uuid.UUID, referentID *uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rewards_enabled":    true,
			"purchase_points":    0,
			"referral_points":    0,
			"referral_count":     0,
			"referent_id":        referentID,
			"terms_accepted":     false,
			"terms_accepted_at":  nil,
			"rewards_enabled_at": at,
			"version":            gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFoundError("Customer")
	}
	return nil
}

func (r *customerRepository) AcceptTerms(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Where("id = ? AND rewards_enabled = ?", id, true).
		Updates(map[string]interface{}{
			"terms_accepted":    true,
			"terms_accepted_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrCustomerNotEligible
	}
	return nil
}
