package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gymhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), DB: gormTx{db: conn}})
	require.NoError(t, err)
	return svc, conn
}

func goldPlan() *models.Plan {
	return &models.Plan{
		ID:       uuid.New(),
		Name:     "Gold",
		PlanCode: "PLN_gold",
		Amount:   decimal.NewFromInt(15000),
		Currency: "NGN",
		Interval: enums.BillingIntervalMonthly,
		Status:   enums.PlanStatusActive,
	}
}

func TestProvisionSubscriptionSupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	accountID := uuid.New()
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

	first, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: accountID, Plan: goldPlan(), StartDate: start})
	require.NoError(t, err)
	assert.True(t, first.Provisional())
	assert.Equal(t, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), first.NextBillingDate)
	assert.False(t, first.NextBillingConfirmed)

	second, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: accountID, Plan: goldPlan(), CustomerCode: "CUS_1"})
	require.NoError(t, err)
	require.NotNil(t, second.CustomerCode)

	var prior models.Subscription
	require.NoError(t, conn.First(&prior, "id = ?", first.ID).Error)
	assert.Equal(t, enums.SubscriptionStatusInactive, prior.Status)
}

func TestProvisionSubscriptionRejectsUnknownInterval(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	plan := goldPlan()
	plan.Interval = enums.BillingInterval("weekly")

	sub, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: uuid.New(), Plan: plan})
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplyGatewaySubscriptionPersistsPatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	plan := goldPlan()
	accountID := uuid.New()

	sub, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: accountID, Plan: plan})
	require.NoError(t, err)

	next := time.Now().UTC().AddDate(0, 1, 2).Truncate(time.Second)
	changed, err := svc.ApplyGatewaySubscription(ctx, sub, paystack.Subscription{SubscriptionCode: "SUB_1", EmailToken: "tok", NextPaymentDate: &next})
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := svc.FindSubscriptionByCode(ctx, "SUB_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.NextBillingConfirmed)

	provisional, err := svc.FindProvisionalSubscription(ctx, accountID, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, provisional)
}

func TestApplyGatewaySubscriptionKeepsConcurrentStatusChange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sub, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: uuid.New(), Plan: goldPlan()})
	require.NoError(t, err)
	stale := *sub

	next := time.Now().UTC().AddDate(0, 1, 0).Truncate(time.Second)
	gw := paystack.Subscription{SubscriptionCode: "SUB_1", EmailToken: "tok", NextPaymentDate: &next}
	_, err = svc.ApplyGatewaySubscription(ctx, sub, gw)
	require.NoError(t, err)

	ok, err := svc.TransitionSubscription(ctx, "SUB_1", enums.SubscriptionStatusInactive)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.ApplyGatewaySubscription(ctx, &stale, gw)
	require.NoError(t, err)

	stored, err := svc.FindSubscriptionByCode(ctx, "SUB_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, enums.SubscriptionStatusInactive, stored.Status)
	assert.Equal(t, enums.SubscriptionStatusInactive, stale.Status, "caller copy is refreshed from storage")
}

func TestApplyGatewaySubscriptionNeverRelinksOrRegresses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sub, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: uuid.New(), Plan: goldPlan()})
	require.NoError(t, err)
	stale := *sub

	confirmed := time.Now().UTC().AddDate(0, 2, 0).Truncate(time.Second)
	_, err = svc.ApplyGatewaySubscription(ctx, sub, paystack.Subscription{SubscriptionCode: "SUB_A", NextPaymentDate: &confirmed})
	require.NoError(t, err)

	earlier := confirmed.AddDate(0, -1, 0)
	applied, err := svc.ApplyGatewaySubscription(ctx, &stale, paystack.Subscription{SubscriptionCode: "SUB_B", NextPaymentDate: &earlier})
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := svc.FindSubscriptionByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SubscriptionCode)
	assert.Equal(t, "SUB_A", *stored.SubscriptionCode)
	assert.True(t, stored.NextBillingDate.Equal(confirmed))
	assert.True(t, stored.NextBillingConfirmed)
}

func TestTransitionSubscription(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sub, err := svc.ProvisionSubscription(ctx, ProvisionParams{AccountID: uuid.New(), Plan: goldPlan()})
	require.NoError(t, err)
	_, err = svc.ApplyGatewaySubscription(ctx, sub, paystack.Subscription{SubscriptionCode: "SUB_2"})
	require.NoError(t, err)

	ok, err := svc.TransitionSubscription(ctx, "SUB_2", enums.SubscriptionStatusNonRenewing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.TransitionSubscription(ctx, "SUB_2", enums.SubscriptionStatusInactive)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.TransitionSubscription(ctx, "SUB_2", enums.SubscriptionStatusNonRenewing)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.TransitionSubscription(ctx, "SUB_unknown", enums.SubscriptionStatusInactive)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordTransactionFromGateway(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	paidAt := time.Now().UTC().Truncate(time.Second)

	gw := paystack.Transaction{
		ID:              991,
		Reference:       "ref_gw",
		Status:          paystack.TransactionStatusSuccess,
		Amount:          decimal.NewFromInt(15000),
		Currency:        "NGN",
		Channel:         "card",
		GatewayResponse: "Approved",
		PaidAt:          &paidAt,
		Authorization:   paystack.Authorization{AuthorizationCode: "AUTH_x", Last4: "4081", Channel: "card"},
	}
	txn := NewTransaction(uuid.New(), nil, enums.TransactionTypeSubscription, gw, "Gold membership")
	assert.NotContains(t, string(txn.Metadata), "AUTH_x")

	stored, err := svc.RecordTransaction(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusSuccess, stored.Status)
	assert.Contains(t, string(stored.Metadata), "4081")

	again, err := svc.RecordTransaction(ctx, NewTransaction(stored.AccountID, nil, enums.TransactionTypeSubscription, gw, "Gold membership"))
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)
}
