package billing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// TransactionDTO is the transport shape of a ledger row.
type TransactionDTO struct {
	ID             uuid.UUID               `json:"id"`
	AccountID      uuid.UUID               `json:"accountId"`
	SubscriptionID *uuid.UUID              `json:"subscriptionId,omitempty"`
	Reference      string                  `json:"reference"`
	Amount         decimal.Decimal         `json:"amount"`
	TotalAmount    decimal.Decimal         `json:"totalAmount"`
	Currency       string                  `json:"currency"`
	Type           enums.TransactionType   `json:"type"`
	Status         enums.TransactionStatus `json:"status"`
	Description    string                  `json:"description"`
	Channel        *string                 `json:"channel,omitempty"`
	PaidAt         *time.Time              `json:"paidAt,omitempty"`
	Metadata       json.RawMessage         `json:"metadata,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// SubscriptionDTO is the transport shape of a membership subscription.
type SubscriptionDTO struct {
	ID                   uuid.UUID                `json:"id"`
	AccountID            uuid.UUID                `json:"accountId"`
	PlanID               uuid.UUID                `json:"planId"`
	SubscriptionCode     *string                  `json:"subscriptionCode,omitempty"`
	Status               enums.SubscriptionStatus `json:"status"`
	Amount               decimal.Decimal          `json:"amount"`
	StartDate            time.Time                `json:"startDate"`
	NextBillingDate      time.Time                `json:"nextBillingDate"`
	NextBillingConfirmed bool                     `json:"nextBillingConfirmed"`
}

func TransactionFromModel(t *models.Transaction) *TransactionDTO {
	if t == nil {
		return nil
	}
	dto := &TransactionDTO{
		ID:             t.ID,
		AccountID:      t.AccountID,
		SubscriptionID: t.SubscriptionID,
		Reference:      t.Reference,
		Amount:         t.Amount,
		TotalAmount:    t.TotalAmount,
		Currency:       t.Currency,
		Type:           t.Type,
		Status:         t.Status,
		Description:    t.Description,
		Channel:        t.Channel,
		PaidAt:         t.PaidAt,
		CreatedAt:      t.CreatedAt,
	}
	if len(t.Metadata) > 0 {
		dto.Metadata = json.RawMessage(t.Metadata)
	}
	return dto
}

func SubscriptionFromModel(s *models.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:                   s.ID,
		AccountID:            s.AccountID,
		PlanID:               s.PlanID,
		SubscriptionCode:     s.SubscriptionCode,
		Status:               s.Status,
		Amount:               s.Amount,
		StartDate:            s.StartDate,
		NextBillingDate:      s.NextBillingDate,
		NextBillingConfirmed: s.NextBillingConfirmed,
	}
}
