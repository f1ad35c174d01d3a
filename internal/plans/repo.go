package plans

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles plan persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	FindByCode(ctx context.Context, planCode string) (*models.Plan, error)
	FindByName(ctx context.Context, name string) (*models.Plan, error)
	ListByStatus(ctx context.Context, status enums.PlanStatus) ([]models.Plan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) Update(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) FindByCode(ctx context.Context, planCode string) (*models.Plan, error) {
	if strings.TrimSpace(planCode) == "" {
		return nil, nil
	}
	return r.first(ctx, "plan_code = ?", strings.TrimSpace(planCode))
}

// FindByName matches case-insensitively, mirroring the lower(name) index.
func (r *repository) FindByName(ctx context.Context, name string) (*models.Plan, error) {
	return r.first(ctx, "lower(name) = ?", strings.ToLower(strings.TrimSpace(name)))
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PlanStatus) ([]models.Plan, error) {
	var plans []models.Plan
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("amount ASC, name ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where(query, args...).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
