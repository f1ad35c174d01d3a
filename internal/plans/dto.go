package plans

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// PlanDTO is the public plan shape.
type PlanDTO struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	PlanCode    string                `json:"planCode"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency"`
	Interval    enums.BillingInterval `json:"interval"`
	Features    []string              `json:"features"`
	Status      enums.PlanStatus      `json:"status"`
}

// CreatePlanInput is validated by the controller before reaching the service.
type CreatePlanInput struct {
	Name        string
	Description *string
	Amount      decimal.Decimal
	Currency    string
	Interval    enums.BillingInterval
	Features    []string
}

// UpdatePlanInput carries optional changes; nil fields are left untouched.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
	Interval    *enums.BillingInterval
	Features    []string
}

func FromModel(p *models.Plan) *PlanDTO {
	if p == nil {
		return nil
	}
	features := []string(p.Features)
	if features == nil {
		features = []string{}
	}
	return &PlanDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PlanCode:    p.PlanCode,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Interval:    p.Interval,
		Features:    features,
		Status:      p.Status,
	}
}

func FromModels(list []models.Plan) []PlanDTO {
	out := make([]PlanDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
