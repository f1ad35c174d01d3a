package plans

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/gymhub-backend/pkg/db"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// Gateway is the subset of the payment gateway the catalog mirrors onto.
type Gateway interface {
	CreatePlan(ctx context.Context, params paystack.PlanParams) (*paystack.Plan, error)
	UpdatePlan(ctx context.Context, idOrCode string, params paystack.PlanParams) error
	DeletePlan(ctx context.Context, idOrCode string) error
}

// Service manages the plan catalog. Gateway writes happen first so a local
// row never references a plan the gateway does not know.
type Service interface {
	Create(ctx context.Context, input CreatePlanInput) (*models.Plan, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*models.Plan, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	ListActive(ctx context.Context) ([]models.Plan, error)
}

type ServiceParams struct {
	Repo            Repository
	Gateway         Gateway
	DefaultCurrency string
	Logger          *logger.Logger
}

type service struct {
	repo            Repository
	gateway         Gateway
	defaultCurrency string
	logg            *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plans repo required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan gateway required")
	}
	currency := strings.ToUpper(strings.TrimSpace(params.DefaultCurrency))
	if currency == "" {
		currency = "NGN"
	}
	return &service{
		repo:            params.Repo,
		gateway:         params.Gateway,
		defaultCurrency: currency,
		logg:            params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreatePlanInput) (*models.Plan, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan amount must be positive")
	}
	if !input.Interval.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan interval must be monthly or annually")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan name")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a plan with this name already exists")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	remote, err := s.gateway.CreatePlan(ctx, paystack.PlanParams{
		Name:        name,
		Description: derefString(input.Description),
		Amount:      input.Amount,
		Interval:    input.Interval,
		Currency:    currency,
	})
	if err != nil {
		return nil, paystack.ToDomain(err, "create gateway plan")
	}

	plan := &models.Plan{
		Name:        name,
		Description: input.Description,
		PlanCode:    remote.PlanCode,
		Amount:      input.Amount.Round(2),
		Currency:    currency,
		Interval:    input.Interval,
		Features:    pq.StringArray(cleanFeatures(input.Features)),
		Status:      enums.PlanStatusActive,
	}
	if remote.ID != 0 {
		id := remote.ID
		plan.GatewayPlanID = &id
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a plan with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist plan")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"plan_id": plan.ID.String(), "plan_code": plan.PlanCode}), "plan created")
	}
	return plan, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*models.Plan, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
		}
		if !strings.EqualFold(name, plan.Name) {
			other, err := s.repo.FindByName(ctx, name)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan name")
			}
			if other != nil && other.ID != plan.ID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a plan with this name already exists")
			}
		}
		plan.Name = name
	}
	if input.Description != nil {
		plan.Description = input.Description
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan amount must be positive")
		}
		plan.Amount = input.Amount.Round(2)
	}
	if input.Interval != nil {
		if !input.Interval.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan interval must be monthly or annually")
		}
		plan.Interval = *input.Interval
	}
	if input.Features != nil {
		plan.Features = pq.StringArray(cleanFeatures(input.Features))
	}

	if err := s.gateway.UpdatePlan(ctx, gatewayRef(plan), paystack.PlanParams{
		Name:        plan.Name,
		Description: derefString(plan.Description),
		Amount:      plan.Amount,
		Interval:    plan.Interval,
		Currency:    plan.Currency,
	}); err != nil {
		return nil, paystack.ToDomain(err, "update gateway plan")
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a plan with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist plan")
	}
	return plan, nil
}

// Deactivate removes the plan from the gateway and hides it locally.
// Subscriptions keep referencing the row, so it is never hard-deleted.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status == enums.PlanStatusInactive {
		return plan, nil
	}

	if err := s.gateway.DeletePlan(ctx, gatewayRef(plan)); err != nil && !paystack.IsNotFound(err) {
		return nil, paystack.ToDomain(err, "delete gateway plan")
	}

	plan.Status = enums.PlanStatusInactive
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist plan")
	}
	return plan, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Plan, error) {
	list, err := s.repo.ListByStatus(ctx, enums.PlanStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list plans")
	}
	return list, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	return plan, nil
}

func gatewayRef(plan *models.Plan) string {
	if plan.GatewayPlanID != nil && *plan.GatewayPlanID != 0 {
		return strconv.FormatInt(*plan.GatewayPlanID, 10)
	}
	return plan.PlanCode
}

func cleanFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
