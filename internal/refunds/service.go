package refunds

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// ReferenceSuffix marks the ledger row that records a refund.
const ReferenceSuffix = "-RF"

// Gateway is the subset of the payment gateway used for refunds.
type Gateway interface {
	CreateRefund(ctx context.Context, params paystack.RefundParams) (*paystack.Refund, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input describes an admin refund request. A nil Amount refunds the full
// original amount.
type Input struct {
	TransactionID uuid.UUID
	Reason        string
	Amount        *decimal.Decimal
	ActorID       *uuid.UUID
}

// Result pairs the mutated original with the new refund ledger row.
type Result struct {
	Transaction *models.Transaction
	Refund      *models.Transaction
}

type Service interface {
	Refund(ctx context.Context, input Input) (*Result, error)
}

type ServiceParams struct {
	Repo    billing.Repository
	DB      txRunner
	Gateway Gateway
	Logger  *logger.Logger
}

type service struct {
	repo    billing.Repository
	db      txRunner
	gateway Gateway
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "refund tx runner required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "refund gateway required")
	}
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		gateway: params.Gateway,
		logg:    params.Logger,
	}, nil
}

// Refund returns money for a successful transaction. The gateway is asked
// first; local rows change only after it accepted the refund, and then both
// writes land in one transaction.
func (s *service) Refund(ctx context.Context, input Input) (*Result, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason is required")
	}

	original, err := s.repo.FindTransactionByID(ctx, input.TransactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	if original == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	if original.Status == enums.TransactionStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "transaction already refunded")
	}
	if original.Status != enums.TransactionStatusSuccess {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only successful transactions can be refunded").
			WithDetails(map[string]any{"status": original.Status})
	}

	amount := original.Amount
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
		}
		if input.Amount.GreaterThan(original.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds the original amount")
		}
		amount = input.Amount.Round(2)
	}

	if s.logg != nil {
		ctx = s.logg.WithReference(ctx, original.Reference)
	}

	refund, err := s.gateway.CreateRefund(ctx, paystack.RefundParams{
		Reference: original.Reference,
		Amount:    input.Amount,
		Note:      reason,
	})
	if err != nil {
		return nil, paystack.ToDomain(err, "create refund")
	}
	if refund.Failed() {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "gateway rejected the refund").
			WithDetails(map[string]any{"status": refund.Status})
	}
	if refund.Amount.IsPositive() {
		amount = refund.Amount
	}

	meta := map[string]any{
		"original_reference": original.Reference,
		"gateway_refund_id":  refund.ID,
		"gateway_status":     refund.Status,
		"reason":             reason,
	}
	if input.ActorID != nil {
		meta["refunded_by"] = input.ActorID.String()
	}
	refundRow := &models.Transaction{
		AccountID:      original.AccountID,
		SubscriptionID: original.SubscriptionID,
		Reference:      original.Reference + ReferenceSuffix,
		Amount:         amount,
		TotalAmount:    amount,
		Currency:       original.Currency,
		Type:           enums.TransactionTypeRefund,
		Status:         enums.TransactionStatusSuccess,
		Description:    "Refund: " + reason,
		Metadata:       billing.MetadataJSON(meta),
	}

	description := strings.TrimSpace(original.Description + " Refunded: " + reason)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.MarkTransactionRefunded(ctx, original.ID, description)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "transaction already refunded")
		}
		return repo.CreateTransaction(ctx, refundRow)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if s.logg != nil {
			s.logg.Error(ctx, "refund accepted by gateway but ledger write failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record refund")
	}

	original.Status = enums.TransactionStatusRefunded
	original.Description = description
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"transaction_id": original.ID.String(),
			"refund_amount":  amount.StringFixed(2),
		}), "transaction refunded")
	}
	return &Result{Transaction: original, Refund: refundRow}, nil
}
