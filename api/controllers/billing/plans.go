package billing

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/api/responses"
	"github.com/angelmondragon/gymhub-backend/api/validators"
	"github.com/angelmondragon/gymhub-backend/internal/plans"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

// PlanService describes the plan catalog methods used by the HTTP controllers.
type PlanService interface {
	Create(ctx context.Context, input plans.CreatePlanInput) (*models.Plan, error)
	Update(ctx context.Context, id uuid.UUID, input plans.UpdatePlanInput) (*models.Plan, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	ListActive(ctx context.Context) ([]models.Plan, error)
}

type planListResponse struct {
	Plans []plans.PlanDTO `json:"plans"`
}

type planCreateRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,iso4217"`
	Interval    string          `json:"interval" validate:"required"`
	Features    []string        `json:"features" validate:"omitempty,max=50,dive,max=200"`
}

type planUpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	Amount      *decimal.Decimal `json:"amount"`
	Interval    *string          `json:"interval"`
	Features    []string         `json:"features" validate:"omitempty,max=50,dive,max=200"`
}

func PlansList(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		list, err := svc.ListActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, planListResponse{Plans: plans.FromModels(list)})
	}
}

func AdminPlanCreate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		var payload planCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		interval, err := enums.ParseBillingInterval(strings.TrimSpace(payload.Interval))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid interval"))
			return
		}

		plan, err := svc.Create(ctx, plans.CreatePlanInput{
			Name:        validators.SanitizeString(payload.Name, 120),
			Description: payload.Description,
			Amount:      payload.Amount,
			Currency:    strings.ToUpper(strings.TrimSpace(payload.Currency)),
			Interval:    interval,
			Features:    payload.Features,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, plans.FromModel(plan))
	}
}

func AdminPlanUpdate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		planID, err := validators.ParseUUIDParam(chi.URLParam(r, "planId"), "planId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload planUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := plans.UpdatePlanInput{
			Name:        payload.Name,
			Description: payload.Description,
			Amount:      payload.Amount,
			Features:    payload.Features,
		}
		if payload.Interval != nil {
			interval, err := enums.ParseBillingInterval(strings.TrimSpace(*payload.Interval))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid interval"))
				return
			}
			input.Interval = &interval
		}

		plan, err := svc.Update(ctx, planID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans.FromModel(plan))
	}
}

// AdminPlanDelete retires a plan. Subscriptions still reference it, so the
// row stays with status inactive.
func AdminPlanDelete(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		planID, err := validators.ParseUUIDParam(chi.URLParam(r, "planId"), "planId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Deactivate(ctx, planID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans.FromModel(plan))
	}
}
