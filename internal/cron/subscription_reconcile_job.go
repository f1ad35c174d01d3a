package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour
)

type provisionalLedger interface {
	ListProvisionalSubscriptions(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error)
	ApplyGatewaySubscription(ctx context.Context, sub *models.Subscription, gw paystack.Subscription) (bool, error)
}

type planLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

type subscriptionFetcher interface {
	FetchSubscriptionByPlanAndCustomer(ctx context.Context, planID, customerID int64) (*paystack.Subscription, error)
}

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger   *logger.Logger
	Billing  provisionalLedger
	Plans    planLookup
	Gateway  subscriptionFetcher
	Limit    int
	Lookback time.Duration
}

// NewSubscriptionReconcileJob builds the job that links provisional
// subscriptions to the subscription the gateway created for them.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Billing == nil {
		return nil, fmt.Errorf("billing service required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan lookup required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		billing:  params.Billing,
		plans:    params.Plans,
		gateway:  params.Gateway,
		limit:    limit,
		lookback: lookback,
	}, nil
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	billing  provisionalLedger
	plans    planLookup
	gateway  subscriptionFetcher
	limit    int
	lookback time.Duration
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	logCtx := j.logg.WithField(ctx, "job", j.Name())
	snapshot, err := j.billing.ListProvisionalSubscriptions(logCtx, j.limit, j.lookback)
	if err != nil {
		return fmt.Errorf("list provisional subscriptions: %w", err)
	}

	plans := map[uuid.UUID]*models.Plan{}
	var errs error
	linked, pending := 0, 0
	for i := range snapshot {
		ok, err := j.reconcileSubscription(logCtx, &snapshot[i], plans)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			linked++
		} else {
			pending++
		}
	}
	reportCtx := j.logg.WithFields(logCtx, map[string]any{
		"candidates": len(snapshot),
		"linked":     linked,
		"pending":    pending,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}

func (j *subscriptionReconcileJob) reconcileSubscription(ctx context.Context, sub *models.Subscription, plans map[uuid.UUID]*models.Plan) (bool, error) {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscription_id": sub.ID.String(),
		"account_id":      sub.AccountID.String(),
	})
	if sub.CustomerID == nil || *sub.CustomerID == 0 {
		j.logg.Debug(logCtx, "subscription has no gateway customer; skipping")
		return false, nil
	}

	plan, ok := plans[sub.PlanID]
	if !ok {
		found, err := j.plans.FindByID(logCtx, sub.PlanID)
		if err != nil {
			return false, fmt.Errorf("load plan %s: %w", sub.PlanID, err)
		}
		plans[sub.PlanID] = found
		plan = found
	}
	if plan == nil || plan.GatewayPlanID == nil {
		j.logg.Debug(logCtx, "plan has no gateway id; skipping")
		return false, nil
	}

	gw, err := j.gateway.FetchSubscriptionByPlanAndCustomer(logCtx, *plan.GatewayPlanID, *sub.CustomerID)
	if err != nil {
		return false, fmt.Errorf("fetch gateway subscription for %s: %w", sub.ID, err)
	}
	if gw == nil {
		j.logg.Debug(logCtx, "gateway subscription not created yet")
		return false, nil
	}

	changed, err := j.billing.ApplyGatewaySubscription(logCtx, sub, *gw)
	if err != nil {
		return false, fmt.Errorf("apply gateway subscription to %s: %w", sub.ID, err)
	}
	if changed {
		j.logg.Info(j.logg.WithField(logCtx, "subscription_code", gw.SubscriptionCode), "subscription reconciled")
	}
	return true, nil
}
