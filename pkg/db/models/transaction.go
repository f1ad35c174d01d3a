package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// Transaction is an append-mostly ledger row keyed by gateway reference.
type Transaction struct {
	ID             uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	SubscriptionID *uuid.UUID              `gorm:"column:subscription_id;type:uuid;index"`
	Reference      string                  `gorm:"column:reference;not null;uniqueIndex"`
	Amount         decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	TotalAmount    decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency       string                  `gorm:"column:currency;not null"`
	Type           enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Status         enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Description    string                  `gorm:"column:description;not null;default:''"`
	Channel        *string                 `gorm:"column:channel"`
	PaidAt         *time.Time              `gorm:"column:paid_at"`
	Metadata       datatypes.JSON          `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
