package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// Subscription links an account to a plan. A row without a SubscriptionCode
// is provisional until the gateway materializes its side.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	PlanID               uuid.UUID                `gorm:"column:plan_id;type:uuid;not null;index"`
	StartDate            time.Time                `gorm:"column:start_date;not null"`
	NextBillingDate      time.Time                `gorm:"column:next_billing_date;not null"`
	NextBillingConfirmed bool                     `gorm:"column:next_billing_confirmed;not null;default:false"`
	SubscriptionCode     *string                  `gorm:"column:subscription_code;uniqueIndex"`
	EmailToken           *string                  `gorm:"column:email_token"`
	CustomerCode         *string                  `gorm:"column:customer_code"`
	CustomerID           *int64                   `gorm:"column:customer_id"`
	Amount               decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// Provisional reports whether the gateway subscription code is still unknown.
func (s Subscription) Provisional() bool {
	return s.SubscriptionCode == nil || *s.SubscriptionCode == ""
}
