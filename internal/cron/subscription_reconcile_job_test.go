package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

type fakeProvisionalLedger struct {
	subs    []models.Subscription
	applied []string
}

func (f *fakeProvisionalLedger) ListProvisionalSubscriptions(context.Context, int, time.Duration) ([]models.Subscription, error) {
	return f.subs, nil
}

func (f *fakeProvisionalLedger) ApplyGatewaySubscription(_ context.Context, sub *models.Subscription, gw paystack.Subscription) (bool, error) {
	changed := billing.PatchFromGateway(sub, gw)
	if changed {
		f.applied = append(f.applied, gw.SubscriptionCode)
	}
	return changed, nil
}

type fakePlanLookup struct {
	plans map[uuid.UUID]*models.Plan
	calls int
}

func (f *fakePlanLookup) FindByID(_ context.Context, id uuid.UUID) (*models.Plan, error) {
	f.calls++
	return f.plans[id], nil
}

type fakeSubscriptionFetcher struct {
	byCustomer map[int64]*paystack.Subscription
	errs       map[int64]error
}

func (f *fakeSubscriptionFetcher) FetchSubscriptionByPlanAndCustomer(_ context.Context, _ int64, customerID int64) (*paystack.Subscription, error) {
	if err := f.errs[customerID]; err != nil {
		return nil, err
	}
	return f.byCustomer[customerID], nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestSubscriptionReconcileJobLinksGatewaySubscriptions(t *testing.T) {
	planID := uuid.New()
	next := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	ledger := &fakeProvisionalLedger{subs: []models.Subscription{
		{ID: uuid.New(), PlanID: planID, CustomerID: int64Ptr(11), NextBillingDate: next.AddDate(0, 0, -2)},
		{ID: uuid.New(), PlanID: planID, CustomerID: int64Ptr(22)},
		{ID: uuid.New(), PlanID: planID},
	}}
	plans := &fakePlanLookup{plans: map[uuid.UUID]*models.Plan{
		planID: {ID: planID, PlanCode: "PLN_gold", GatewayPlanID: int64Ptr(900)},
	}}
	gateway := &fakeSubscriptionFetcher{byCustomer: map[int64]*paystack.Subscription{
		11: {SubscriptionCode: "SUB_a", EmailToken: "tok", NextPaymentDate: &next},
	}}

	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Billing: ledger,
		Plans:   plans,
		Gateway: gateway,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(ledger.applied) != 1 || ledger.applied[0] != "SUB_a" {
		t.Fatalf("expected SUB_a linked, got %v", ledger.applied)
	}
	linked := ledger.subs[0]
	if linked.SubscriptionCode == nil || *linked.SubscriptionCode != "SUB_a" {
		t.Fatalf("subscription code not patched: %+v", linked)
	}
	if !linked.NextBillingConfirmed || !linked.NextBillingDate.Equal(next) {
		t.Fatalf("next billing date not confirmed: %+v", linked)
	}
	if ledger.subs[1].SubscriptionCode != nil {
		t.Fatal("subscription without a gateway match must stay provisional")
	}
	if plans.calls != 1 {
		t.Fatalf("expected plan lookup to be cached, got %d calls", plans.calls)
	}
}

func TestSubscriptionReconcileJobAggregatesErrors(t *testing.T) {
	planID := uuid.New()
	ledger := &fakeProvisionalLedger{subs: []models.Subscription{
		{ID: uuid.New(), PlanID: planID, CustomerID: int64Ptr(1)},
		{ID: uuid.New(), PlanID: planID, CustomerID: int64Ptr(2)},
		{ID: uuid.New(), PlanID: planID, CustomerID: int64Ptr(3)},
	}}
	plans := &fakePlanLookup{plans: map[uuid.UUID]*models.Plan{
		planID: {ID: planID, GatewayPlanID: int64Ptr(7)},
	}}
	gateway := &fakeSubscriptionFetcher{
		byCustomer: map[int64]*paystack.Subscription{3: {SubscriptionCode: "SUB_3"}},
		errs: map[int64]error{
			1: errors.New("gateway down"),
			2: errors.New("timeout"),
		},
	}

	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Billing: ledger,
		Plans:   plans,
		Gateway: gateway,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	err = job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 aggregated errors, got %d: %v", got, err)
	}
	if len(ledger.applied) != 1 || ledger.applied[0] != "SUB_3" {
		t.Fatalf("failures must not stop the loop, applied %v", ledger.applied)
	}
}

func TestNewSubscriptionReconcileJobRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{Logger: logg}); err == nil {
		t.Fatal("expected error without billing service")
	}
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:  logg,
		Billing: &fakeProvisionalLedger{},
		Plans:   &fakePlanLookup{},
		Gateway: &fakeSubscriptionFetcher{},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "subscription-reconcile" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
}
