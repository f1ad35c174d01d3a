package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gymhub-backend/pkg/db"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

const provisionAttempts = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo   Repository
	DB     txRunner
	Logger *logger.Logger
}

// Service owns subscription lifecycle writes and the transaction ledger.
// Both the verification workflow and webhook handlers go through it, in
// either order.
type Service struct {
	repo Repository
	db   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing tx runner required")
	}
	return &Service{
		repo: params.Repo,
		db:   params.DB,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

// ProvisionParams describes a subscription created before the gateway has
// materialized its side.
type ProvisionParams struct {
	AccountID    uuid.UUID
	Plan         *models.Plan
	StartDate    time.Time
	CustomerCode string
	CustomerID   int64
}

// ProvisionSubscription retires the account's active subscription and
// inserts a provisional one in a single transaction. A concurrent
// provisioning for the same account trips the one-active index; the loser
// retries once against the winner's row.
func (s *Service) ProvisionSubscription(ctx context.Context, params ProvisionParams) (*models.Subscription, error) {
	if params.AccountID == uuid.Nil || params.Plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account and plan are required")
	}
	if !params.Plan.Interval.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan has an unsupported billing interval")
	}
	start := params.StartDate
	if start.IsZero() {
		start = s.now()
	}
	start = start.UTC()

	var lastErr error
	for attempt := 0; attempt < provisionAttempts; attempt++ {
		sub := &models.Subscription{
			AccountID:       params.AccountID,
			PlanID:          params.Plan.ID,
			StartDate:       start,
			NextBillingDate: paystack.NextBillingDate(start, params.Plan.Interval),
			Amount:          params.Plan.Amount,
			Status:          enums.SubscriptionStatusActive,
		}
		if cc := strings.TrimSpace(params.CustomerCode); cc != "" {
			sub.CustomerCode = &cc
		}
		if params.CustomerID != 0 {
			id := params.CustomerID
			sub.CustomerID = &id
		}

		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			superseded, err := repo.SupersedeActive(ctx, params.AccountID)
			if err != nil {
				return err
			}
			if superseded > 0 && s.logg != nil {
				s.logg.Info(s.logg.WithFields(ctx, map[string]any{
					"account_id": params.AccountID.String(),
					"superseded": superseded,
				}), "previous active subscription superseded")
			}
			return repo.CreateSubscription(ctx, sub)
		})
		if err == nil {
			return sub, nil
		}
		lastErr = err
		if !db.IsUniqueViolation(err, "subscriptions_one_active_per_account") {
			break
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "provision subscription")
}

// ApplyGatewaySubscription writes the gateway's view of a subscription onto
// the stored row and refreshes sub from storage. sub may be stale: only the
// gateway-owned columns are written, so a status change applied in the
// meantime survives.
func (s *Service) ApplyGatewaySubscription(ctx context.Context, sub *models.Subscription, gw paystack.Subscription) (bool, error) {
	if sub == nil {
		return false, nil
	}
	candidate := *sub
	if !PatchFromGateway(&candidate, gw) {
		return false, nil
	}
	applied, err := s.repo.ApplyGatewayPatch(ctx, sub.ID, GatewayPatchFor(gw))
	if err != nil {
		if db.IsUniqueViolation(err, "subscriptions_subscription_code_key") {
			return false, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "subscription code already linked")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription")
	}
	fresh, err := s.repo.FindSubscriptionByID(ctx, sub.ID)
	if err != nil {
		return applied, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload subscription")
	}
	if fresh != nil {
		*sub = *fresh
	}
	return applied, nil
}

// TransitionSubscription applies a gateway-driven status change to the
// subscription identified by code. It reports false when no row matches or
// the change is not allowed from the current status.
func (s *Service) TransitionSubscription(ctx context.Context, subscriptionCode string, to enums.SubscriptionStatus) (bool, error) {
	sub, err := s.repo.FindSubscriptionByCode(ctx, subscriptionCode)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	if sub == nil || !sub.Status.CanTransitionTo(to) {
		return false, nil
	}
	ok, err := s.repo.UpdateSubscriptionStatus(ctx, sub.ID, sub.Status, to)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription status")
	}
	return ok, nil
}

func (s *Service) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	return sub, nil
}

func (s *Service) FindSubscriptionByCode(ctx context.Context, subscriptionCode string) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByCode(ctx, subscriptionCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	return sub, nil
}

func (s *Service) FindProvisionalSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindProvisionalSubscription(ctx, accountID, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup provisional subscription")
	}
	return sub, nil
}

func (s *Service) FindLatestSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindLatestSubscription(ctx, accountID, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	return sub, nil
}

func (s *Service) ListProvisionalSubscriptions(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	subs, err := s.repo.ListProvisionalSubscriptions(ctx, limit, lookback)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list provisional subscriptions")
	}
	return subs, nil
}

// RecordTransaction upserts txn by reference and returns the stored row.
func (s *Service) RecordTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if txn.Currency == "" {
		txn.Currency = "NGN"
	}
	if txn.TotalAmount.IsZero() {
		txn.TotalAmount = txn.Amount
	}
	stored, err := s.repo.UpsertTransaction(ctx, txn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record transaction")
	}
	return stored, nil
}

// LinkTransaction backfills the subscription of the ledger row with reference.
func (s *Service) LinkTransaction(ctx context.Context, reference string, subscriptionID uuid.UUID) error {
	if _, err := s.repo.LinkTransactionSubscription(ctx, reference, subscriptionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link transaction to subscription")
	}
	return nil
}

func (s *Service) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := s.repo.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup transaction")
	}
	return txn, nil
}

// NewTransaction builds a ledger row from a verified gateway transaction.
func NewTransaction(accountID uuid.UUID, subscriptionID *uuid.UUID, typ enums.TransactionType, gw paystack.Transaction, description string) *models.Transaction {
	txn := &models.Transaction{
		AccountID:      accountID,
		SubscriptionID: subscriptionID,
		Reference:      gw.Reference,
		Amount:         gw.Amount,
		TotalAmount:    gw.Amount,
		Currency:       gw.Currency,
		Type:           typ,
		Status:         enums.TransactionStatusPending,
		Description:    description,
		PaidAt:         gw.PaidAt,
		Metadata:       gatewayMetadata(gw),
	}
	if gw.Successful() {
		txn.Status = enums.TransactionStatusSuccess
	} else if strings.EqualFold(gw.Status, paystack.TransactionStatusFailed) {
		txn.Status = enums.TransactionStatusFailed
	}
	if ch := strings.TrimSpace(gw.Channel); ch != "" {
		txn.Channel = &ch
	}
	return txn
}
