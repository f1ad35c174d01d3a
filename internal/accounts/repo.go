package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes account persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateCustomerCode(ctx context.Context, id uuid.UUID, customerCode string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new account. Emails are stored lower-case.
func (r *repository) Create(ctx context.Context, account *models.Account) error {
	account.Email = NormalizeEmail(account.Email)
	return r.db.WithContext(ctx).Create(account).Error
}

// FindByEmail returns nil, nil when no account matches.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindByID returns nil, nil when no account matches.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// UpdateCustomerCode records the gateway customer code once it is known.
func (r *repository) UpdateCustomerCode(ctx context.Context, id uuid.UUID, customerCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("gateway_customer_code", customerCode).Error
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
