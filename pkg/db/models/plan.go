package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// Plan is the local mirror of a gateway plan.
type Plan struct {
	ID            uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                `gorm:"column:name;not null"`
	Description   *string               `gorm:"column:description"`
	PlanCode      string                `gorm:"column:plan_code;not null;uniqueIndex"`
	GatewayPlanID *int64                `gorm:"column:gateway_plan_id"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      string                `gorm:"column:currency;not null"`
	Interval      enums.BillingInterval `gorm:"column:interval;type:text;not null"`
	Features      pq.StringArray        `gorm:"column:features;type:text[]"`
	Status        enums.PlanStatus      `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
