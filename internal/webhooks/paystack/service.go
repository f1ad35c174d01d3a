package paystackwebhook

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

type accountFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type planFinder interface {
	FindByCode(ctx context.Context, planCode string) (*models.Plan, error)
}

type ledger interface {
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	RecordTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindSubscriptionByCode(ctx context.Context, subscriptionCode string) (*models.Subscription, error)
	FindProvisionalSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error)
	FindLatestSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error)
	ApplyGatewaySubscription(ctx context.Context, sub *models.Subscription, gw paystack.Subscription) (bool, error)
	TransitionSubscription(ctx context.Context, subscriptionCode string, to enums.SubscriptionStatus) (bool, error)
}

type ServiceParams struct {
	Accounts accountFinder
	Plans    planFinder
	Billing  ledger
	Logger   *logger.Logger
}

// Service applies gateway events to local state. Every handler tolerates
// running before, after, or instead of the synchronous verification path;
// when the rows it needs do not exist yet it writes nothing.
type Service struct {
	accounts accountFinder
	plans    planFinder
	billing  ledger
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "account lookup required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan lookup required")
	}
	if params.Billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing service required")
	}
	return &Service{
		accounts: params.Accounts,
		plans:    params.Plans,
		billing:  params.Billing,
		logg:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	switch e := event.(type) {
	case ChargeSuccessEvent:
		return s.handleChargeSuccess(ctx, e.Transaction)
	case SubscriptionCreatedEvent:
		return s.handleSubscriptionCreated(ctx, e.Subscription)
	case SubscriptionDisabledEvent:
		return s.transition(ctx, e.Subscription.SubscriptionCode, enums.SubscriptionStatusInactive)
	case SubscriptionNotRenewingEvent:
		return s.transition(ctx, e.Subscription.SubscriptionCode, enums.SubscriptionStatusNonRenewing)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported event type").
			WithDetails(map[string]any{"event": event.Name()})
	}
}

func (s *Service) handleChargeSuccess(ctx context.Context, gw paystack.Transaction) error {
	if s.logg != nil {
		ctx = s.logg.WithReference(ctx, gw.Reference)
	}

	existing, err := s.billing.FindTransactionByReference(ctx, gw.Reference)
	if err != nil {
		return err
	}
	if existing != nil {
		txn := billing.NewTransaction(existing.AccountID, existing.SubscriptionID, existing.Type, gw, existing.Description)
		_, err := s.billing.RecordTransaction(ctx, txn)
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, gw.Customer.Email)
	if err != nil {
		return err
	}
	if account == nil {
		s.debug(ctx, "charge for unknown customer; verification will provision it")
		return nil
	}

	var plan *models.Plan
	if gw.PlanCode != "" {
		plan, err = s.plans.FindByCode(ctx, gw.PlanCode)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan")
		}
	}

	typ := chargeType(gw, gw.PlanCode != "")
	description := "Membership payment"
	var subscriptionID *uuid.UUID
	if plan != nil {
		description = plan.Name + " membership"
		sub, err := s.billing.FindLatestSubscription(ctx, account.ID, plan.ID)
		if err != nil {
			return err
		}
		if sub != nil {
			subscriptionID = &sub.ID
		}
	}
	if typ == enums.TransactionTypeRegistration {
		description = "Registration fee"
	}

	_, err = s.billing.RecordTransaction(ctx, billing.NewTransaction(account.ID, subscriptionID, typ, gw, description))
	return err
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, gw paystack.Subscription) error {
	sub, err := s.billing.FindSubscriptionByCode(ctx, gw.SubscriptionCode)
	if err != nil {
		return err
	}
	if sub == nil {
		sub, err = s.findProvisional(ctx, gw)
		if err != nil {
			return err
		}
	}
	if sub == nil {
		s.debug(ctx, "no local subscription matches gateway subscription; reconcile will retry")
		return nil
	}

	if _, err := s.billing.ApplyGatewaySubscription(ctx, sub, gw); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"subscription_code": gw.SubscriptionCode,
					"subscription_id":   sub.ID.String(),
				}), "gateway subscription already linked to another row")
			}
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) findProvisional(ctx context.Context, gw paystack.Subscription) (*models.Subscription, error) {
	if gw.PlanCode == "" || gw.Customer.Email == "" {
		return nil, nil
	}
	account, err := s.accounts.FindByEmail(ctx, gw.Customer.Email)
	if err != nil || account == nil {
		return nil, err
	}
	plan, err := s.plans.FindByCode(ctx, gw.PlanCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan")
	}
	if plan == nil {
		return nil, nil
	}
	return s.billing.FindProvisionalSubscription(ctx, account.ID, plan.ID)
}

func (s *Service) transition(ctx context.Context, code string, to enums.SubscriptionStatus) error {
	changed, err := s.billing.TransitionSubscription(ctx, code, to)
	if err != nil {
		return err
	}
	if !changed {
		s.debug(s.withCode(ctx, code), "subscription status unchanged")
	}
	return nil
}

func (s *Service) withCode(ctx context.Context, code string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithFields(ctx, map[string]any{"subscription_code": code})
}

func (s *Service) debug(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Debug(ctx, msg)
	}
}

// chargeType prefers the type stamped into checkout metadata.
func chargeType(gw paystack.Transaction, hasPlan bool) enums.TransactionType {
	if raw, ok := gw.Metadata["transaction_type"].(string); ok {
		if typ, err := enums.ParseTransactionType(raw); err == nil && typ != enums.TransactionTypeRefund {
			return typ
		}
	}
	if hasPlan {
		return enums.TransactionTypeSubscription
	}
	return enums.TransactionTypeRegistration
}
