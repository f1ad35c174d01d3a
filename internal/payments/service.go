package payments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/internal/accounts"
	"github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/pkg/auth/session"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// RegistrationSuffix marks the deterministic reference of the one-time
// registration charge that follows a member's first payment.
const RegistrationSuffix = "-REG"

// Gateway is the subset of the payment gateway used during verification.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
	ChargeAuthorization(ctx context.Context, params paystack.ChargeAuthorizationParams) (*paystack.Transaction, error)
	FetchSubscriptionByPlanAndCustomer(ctx context.Context, planID, customerID int64) (*paystack.Subscription, error)
}

type planFinder interface {
	FindByCode(ctx context.Context, planCode string) (*models.Plan, error)
}

type ledger interface {
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	RecordTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	LinkTransaction(ctx context.Context, reference string, subscriptionID uuid.UUID) error
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindProvisionalSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error)
	ProvisionSubscription(ctx context.Context, params billing.ProvisionParams) (*models.Subscription, error)
	ApplyGatewaySubscription(ctx context.Context, sub *models.Subscription, gw paystack.Subscription) (bool, error)
}

type sessionIssuer interface {
	Issue(ctx context.Context, accountID uuid.UUID, role enums.AccountRole, memberID *string) (*session.Issued, error)
}

// Service verifies checkouts and provisions the resulting membership.
type Service interface {
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}

type ServiceParams struct {
	Gateway         Gateway
	Plans           planFinder
	Accounts        accounts.Service
	Billing         ledger
	Sessions        sessionIssuer
	RegistrationFee decimal.Decimal
	Currency        string
	Logger          *logger.Logger
}

type service struct {
	gateway         Gateway
	plans           planFinder
	accounts        accounts.Service
	billing         ledger
	sessions        sessionIssuer
	registrationFee decimal.Decimal
	currency        string
	logg            *logger.Logger
	now             func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan lookup required")
	}
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "accounts service required")
	}
	if params.Billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing service required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session issuer required")
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "NGN"
	}
	return &service{
		gateway:         params.Gateway,
		plans:           params.Plans,
		accounts:        params.Accounts,
		billing:         params.Billing,
		sessions:        params.Sessions,
		registrationFee: params.RegistrationFee,
		currency:        currency,
		logg:            params.Logger,
		now:             time.Now,
	}, nil
}

// Verify confirms a checkout with the gateway and provisions the account,
// subscription and ledger rows for it. Steps after the gateway check are not
// wrapped in one local transaction; each write is idempotent and the ledger
// records how far earlier attempts got, so a retry with the same reference
// resumes instead of starting over or stopping short.
func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithReference(ctx, reference)
	}

	prior, err := s.loadProgress(ctx, reference)
	if err != nil {
		return nil, err
	}
	if prior.complete() {
		return s.replay(ctx, prior.payment)
	}

	verified, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, paystack.ToDomain(err, "verify transaction")
	}
	if !verified.Successful() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment not successful").
			WithDetails(map[string]any{"status": verified.Status})
	}

	plan, err := s.resolvePlan(ctx, verified.PlanCode)
	if err != nil {
		return nil, err
	}

	result, err := s.resolveAccount(ctx, verified, input.Registration)
	if err != nil {
		return nil, err
	}
	account := result.Account
	if err := s.accounts.AttachCustomerCode(ctx, account, verified.Customer.CustomerCode); err != nil {
		s.warn(ctx, "attach customer code failed", err)
	}

	// A registration left unfinished by an earlier attempt is resumed for
	// the same registrant only.
	registering := result.Created ||
		(prior.registrationUnfinished() && input.Registration != nil && prior.registration.AccountID == account.ID)
	if result.Created {
		if err := s.openRegistration(ctx, account, reference); err != nil {
			return nil, err
		}
	}

	var subscriptionID *uuid.UUID
	if plan != nil {
		sub, err := s.reuseOrProvision(ctx, prior, account, plan, verified, input.Registration)
		if err != nil {
			return nil, err
		}
		result.Subscription = sub
		subscriptionID = &sub.ID

		txn := billing.NewTransaction(account.ID, subscriptionID, enums.TransactionTypeSubscription, *verified, plan.Name+" membership")
		if err := s.recordLinked(ctx, txn, sub.ID); err != nil {
			return nil, err
		}
	} else {
		txn := billing.NewTransaction(account.ID, nil, transactionTypeFromMetadata(verified.Metadata), *verified, "Membership payment")
		if _, err := s.billing.RecordTransaction(ctx, txn); err != nil {
			return nil, err
		}
	}

	if registering {
		if err := s.chargeRegistration(ctx, account, subscriptionID, reference, verified, !result.Created); err != nil {
			return nil, err
		}
		issued, err := s.sessions.Issue(ctx, account.ID, account.Role, account.MemberID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session")
		}
		result.AccessToken = issued.AccessToken
		result.ExpiresAt = issued.ExpiresAt
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithAccountID(ctx, account.ID.String()), "payment verified")
	}
	return result, nil
}

// progress is what earlier attempts, or the charge.success webhook, left in
// the ledger for a checkout reference.
type progress struct {
	payment      *models.Transaction
	registration *models.Transaction
}

// complete reports whether nothing is left to do for the reference: the
// payment is settled, linked to its subscription when it was for a plan,
// and any registration charge it opened has settled.
func (p progress) complete() bool {
	if p.payment == nil || !p.payment.Status.Settled() {
		return false
	}
	if p.payment.SubscriptionID == nil && billing.PlanCodeOf(p.payment) != "" {
		return false
	}
	return !p.registrationUnfinished()
}

func (p progress) registrationUnfinished() bool {
	return p.registration != nil && !p.registration.Status.Settled()
}

func (s *service) loadProgress(ctx context.Context, reference string) (progress, error) {
	var p progress
	var err error
	if p.payment, err = s.billing.FindTransactionByReference(ctx, reference); err != nil {
		return p, err
	}
	if p.registration, err = s.billing.FindTransactionByReference(ctx, reference+RegistrationSuffix); err != nil {
		return p, err
	}
	return p, nil
}

func (s *service) replay(ctx context.Context, payment *models.Transaction) (*VerifyResult, error) {
	account, err := s.accounts.FindByID(ctx, payment.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account for transaction not found")
	}
	return &VerifyResult{Account: account, Replayed: true}, nil
}

func (s *service) resolvePlan(ctx context.Context, planCode string) (*models.Plan, error) {
	if strings.TrimSpace(planCode) == "" {
		return nil, nil
	}
	plan, err := s.plans.FindByCode(ctx, planCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan")
	}
	if plan == nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"plan_code": planCode}), "verified payment references an unknown plan")
	}
	return plan, nil
}

func (s *service) resolveAccount(ctx context.Context, verified *paystack.Transaction, reg *RegistrationData) (*VerifyResult, error) {
	email := accounts.NormalizeEmail(verified.Customer.Email)
	if email == "" && reg != nil {
		email = accounts.NormalizeEmail(reg.Email)
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment has no customer email")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return &VerifyResult{Account: account}, nil
	}
	if reg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration data is required for new members")
	}

	account, created, err := s.accounts.Register(ctx, accounts.RegisterInput{
		Email:     email,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Phone:     reg.Phone,
		Role:      enums.AccountRoleMember,
	})
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Account: account, Created: created}, nil
}

// reuseOrProvision returns the subscription this payment belongs to. When an
// earlier attempt or the webhook already recorded the payment, its linked or
// still provisional subscription is reused rather than superseded.
func (s *service) reuseOrProvision(ctx context.Context, prior progress, account *models.Account, plan *models.Plan, verified *paystack.Transaction, reg *RegistrationData) (*models.Subscription, error) {
	if prior.payment != nil {
		if id := prior.payment.SubscriptionID; id != nil {
			sub, err := s.billing.FindSubscriptionByID(ctx, *id)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				return sub, nil
			}
		}
		sub, err := s.billing.FindProvisionalSubscription(ctx, account.ID, plan.ID)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return sub, nil
		}
	}
	return s.provision(ctx, account, plan, verified, reg)
}

// recordLinked upserts txn and backfills its subscription when the row was
// first written without one.
func (s *service) recordLinked(ctx context.Context, txn *models.Transaction, subscriptionID uuid.UUID) error {
	stored, err := s.billing.RecordTransaction(ctx, txn)
	if err != nil {
		return err
	}
	if stored.SubscriptionID != nil {
		return nil
	}
	return s.billing.LinkTransaction(ctx, stored.Reference, subscriptionID)
}

// openRegistration records the registration fee as pending as soon as the
// account exists, so an attempt that fails before the charge settles can be
// resumed by a retry.
func (s *service) openRegistration(ctx context.Context, account *models.Account, reference string) error {
	if !s.registrationFee.IsPositive() {
		return nil
	}
	_, err := s.billing.RecordTransaction(ctx, &models.Transaction{
		AccountID:   account.ID,
		Reference:   reference + RegistrationSuffix,
		Amount:      s.registrationFee,
		TotalAmount: s.registrationFee,
		Currency:    s.currency,
		Type:        enums.TransactionTypeRegistration,
		Status:      enums.TransactionStatusPending,
		Description: "Registration fee",
		Metadata:    billing.MetadataJSON(map[string]any{"checkout_reference": reference}),
	})
	return err
}

func (s *service) provision(ctx context.Context, account *models.Account, plan *models.Plan, verified *paystack.Transaction, reg *RegistrationData) (*models.Subscription, error) {
	start := s.now()
	if reg != nil && reg.StartDate != nil && !reg.StartDate.IsZero() {
		start = *reg.StartDate
	}
	sub, err := s.billing.ProvisionSubscription(ctx, billing.ProvisionParams{
		AccountID:    account.ID,
		Plan:         plan,
		StartDate:    start,
		CustomerCode: verified.Customer.CustomerCode,
		CustomerID:   verified.Customer.ID,
	})
	if err != nil {
		return nil, err
	}

	if plan.GatewayPlanID == nil || verified.Customer.ID == 0 {
		return sub, nil
	}
	remote, err := s.gateway.FetchSubscriptionByPlanAndCustomer(ctx, *plan.GatewayPlanID, verified.Customer.ID)
	if err != nil {
		s.warn(ctx, "gateway subscription lookup failed; leaving subscription provisional", err)
		return sub, nil
	}
	if remote == nil {
		return sub, nil
	}
	if _, err := s.billing.ApplyGatewaySubscription(ctx, sub, *remote); err != nil {
		s.warn(ctx, "linking gateway subscription failed", err)
	}
	return sub, nil
}

// chargeRegistration bills the one-time fee against the authorization the
// member just used. The reference is derived from the checkout reference so
// a retry finds the earlier charge instead of billing twice. When resuming,
// a pending row may hide a charge whose response was lost, so the gateway
// is asked about it before charging again.
func (s *service) chargeRegistration(ctx context.Context, account *models.Account, subscriptionID *uuid.UUID, reference string, verified *paystack.Transaction, resuming bool) error {
	if !s.registrationFee.IsPositive() {
		return nil
	}
	regRef := reference + RegistrationSuffix

	existing, err := s.billing.FindTransactionByReference(ctx, regRef)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status.Settled() {
		return nil
	}

	if resuming && existing != nil && existing.Status == enums.TransactionStatusPending {
		earlier, err := s.gateway.VerifyTransaction(ctx, regRef)
		switch perr, ok := paystack.AsError(err); {
		case err == nil && earlier.Successful():
			return s.recordRegistration(ctx, account, subscriptionID, regRef, earlier)
		case err != nil && !(ok && perr.Kind == paystack.KindClient):
			return paystack.ToDomain(err, "verify registration charge")
		}
	}

	authCode := strings.TrimSpace(verified.Authorization.AuthorizationCode)
	if authCode == "" || !verified.Authorization.Reusable {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment authorization cannot be reused for the registration fee")
	}

	charged, err := s.gateway.ChargeAuthorization(ctx, paystack.ChargeAuthorizationParams{
		Email:             account.Email,
		Amount:            s.registrationFee,
		AuthorizationCode: authCode,
		Reference:         regRef,
		Currency:          s.currency,
		Metadata: map[string]any{
			"transaction_type": string(enums.TransactionTypeRegistration),
			"account_id":       account.ID.String(),
		},
	})
	if err != nil {
		return paystack.ToDomain(err, "charge registration fee")
	}
	return s.recordRegistration(ctx, account, subscriptionID, regRef, charged)
}

func (s *service) recordRegistration(ctx context.Context, account *models.Account, subscriptionID *uuid.UUID, regRef string, charged *paystack.Transaction) error {
	if charged.Reference == "" {
		charged.Reference = regRef
	}
	if charged.Amount.IsZero() {
		charged.Amount = s.registrationFee
	}
	if charged.Currency == "" {
		charged.Currency = s.currency
	}

	txn := billing.NewTransaction(account.ID, subscriptionID, enums.TransactionTypeRegistration, *charged, "Registration fee")
	stored, err := s.billing.RecordTransaction(ctx, txn)
	if err != nil {
		return err
	}
	if subscriptionID != nil && stored.SubscriptionID == nil {
		if err := s.billing.LinkTransaction(ctx, regRef, *subscriptionID); err != nil {
			return err
		}
	}
	if !charged.Successful() {
		return pkgerrors.New(pkgerrors.CodeUpstream, "registration fee charge was not successful").
			WithDetails(map[string]any{"status": charged.Status})
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), msg)
}

func transactionTypeFromMetadata(meta map[string]any) enums.TransactionType {
	if raw, ok := meta["transaction_type"].(string); ok {
		if typ, err := enums.ParseTransactionType(raw); err == nil && typ != enums.TransactionTypeRefund {
			return typ
		}
	}
	return enums.TransactionTypeRegistration
}
