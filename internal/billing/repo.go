package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles subscription and transaction persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	ApplyGatewayPatch(ctx context.Context, id uuid.UUID, patch GatewayPatch) (bool, error)
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, from, to enums.SubscriptionStatus) (bool, error)
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindSubscriptionByCode(ctx context.Context, subscriptionCode string) (*models.Subscription, error)
	FindProvisionalSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error)
	FindLatestSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error)
	SupersedeActive(ctx context.Context, accountID uuid.UUID) (int64, error)
	ListProvisionalSubscriptions(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	UpsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	LinkTransactionSubscription(ctx context.Context, reference string, subscriptionID uuid.UUID) (bool, error)
	MarkTransactionRefunded(ctx context.Context, id uuid.UUID, description string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

// ApplyGatewayPatch writes only the gateway-owned columns of a subscription.
// Nothing is written when the row is linked to another gateway code, and a
// confirmed billing date only moves forward. Status is never touched here.
func (r *repository) ApplyGatewayPatch(ctx context.Context, id uuid.UUID, patch GatewayPatch) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := func() *gorm.DB {
			q := tx.Model(&models.Subscription{}).Where("id = ?", id)
			if patch.SubscriptionCode != "" {
				q = q.Where("(subscription_code IS NULL OR subscription_code = '' OR subscription_code = ?)", patch.SubscriptionCode)
			}
			return q
		}
		now := time.Now().UTC()

		identity := map[string]any{}
		if patch.SubscriptionCode != "" {
			identity["subscription_code"] = patch.SubscriptionCode
		}
		if patch.EmailToken != "" {
			identity["email_token"] = patch.EmailToken
		}
		if patch.CustomerCode != "" {
			identity["customer_code"] = gorm.Expr("COALESCE(NULLIF(customer_code, ''), ?)", patch.CustomerCode)
		}
		if patch.CustomerID != 0 {
			identity["customer_id"] = gorm.Expr("COALESCE(NULLIF(customer_id, 0), ?)", patch.CustomerID)
		}
		if len(identity) > 0 {
			identity["updated_at"] = now
			res := scoped().Updates(identity)
			if res.Error != nil {
				return res.Error
			}
			applied = res.RowsAffected > 0
		}

		if patch.NextBillingDate != nil && !patch.NextBillingDate.IsZero() {
			next := patch.NextBillingDate.UTC()
			res := scoped().
				Where("(next_billing_confirmed = ? OR next_billing_date < ?)", false, next).
				Updates(map[string]any{
					"next_billing_date":      next,
					"next_billing_confirmed": true,
					"updated_at":             now,
				})
			if res.Error != nil {
				return res.Error
			}
			applied = applied || res.RowsAffected > 0
		}
		return nil
	})
	return applied, err
}

// UpdateSubscriptionStatus moves a subscription from one status to another.
// It reports false when the row is no longer in from.
func (r *repository) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, from, to enums.SubscriptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return r.firstSubscription(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindSubscriptionByCode(ctx context.Context, subscriptionCode string) (*models.Subscription, error) {
	code := strings.TrimSpace(subscriptionCode)
	if code == "" {
		return nil, nil
	}
	return r.firstSubscription(r.db.WithContext(ctx).Where("subscription_code = ?", code))
}

// FindProvisionalSubscription returns the newest subscription for the pair
// that the gateway has not confirmed yet.
func (r *repository) FindProvisionalSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error) {
	return r.firstSubscription(r.db.WithContext(ctx).
		Where("account_id = ? AND plan_id = ?", accountID, planID).
		Where("(subscription_code IS NULL OR subscription_code = '')").
		Where("status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusActive, enums.SubscriptionStatusNonRenewing}).
		Order("created_at DESC"))
}

func (r *repository) FindLatestSubscription(ctx context.Context, accountID, planID uuid.UUID) (*models.Subscription, error) {
	return r.firstSubscription(r.db.WithContext(ctx).
		Where("account_id = ? AND plan_id = ?", accountID, planID).
		Order("created_at DESC"))
}

// SupersedeActive retires every active subscription of the account so a new
// one can take the single active slot.
func (r *repository) SupersedeActive(ctx context.Context, accountID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("account_id = ? AND status = ?", accountID, enums.SubscriptionStatusActive).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusInactive,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListProvisionalSubscriptions(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	if limit <= 0 {
		limit = 250
	}
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-lookback)

	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("(subscription_code IS NULL OR subscription_code = '')").
		Where("status = ?", enums.SubscriptionStatusActive).
		Where("created_at >= ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// UpsertTransaction inserts txn or, when the reference already exists, only
// promotes a pending/failed row. A success or refunded row is left as is. The
// stored row is returned either way.
func (r *repository) UpsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if txn == nil || strings.TrimSpace(txn.Reference) == "" {
		return nil, errors.New("transaction reference required")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "paid_at", "channel", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{
					SQL:  "transactions.status IN (?, ?)",
					Vars: []any{enums.TransactionStatusPending, enums.TransactionStatusFailed},
				},
			}},
		}).
		Create(txn).Error
	if err != nil {
		return nil, err
	}
	return r.FindTransactionByReference(ctx, txn.Reference)
}

func (r *repository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.firstTransaction(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, nil
	}
	return r.firstTransaction(r.db.WithContext(ctx).Where("reference = ?", ref))
}

// LinkTransactionSubscription backfills the subscription of a ledger row that
// was recorded before its subscription existed. A linked row is left alone.
func (r *repository) LinkTransactionSubscription(ctx context.Context, reference string, subscriptionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND subscription_id IS NULL", strings.TrimSpace(reference)).
		Updates(map[string]any{
			"subscription_id": subscriptionID,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkTransactionRefunded flips a success row to refunded. It reports false
// when the row was no longer in success, which lets concurrent refunds lose
// cleanly.
func (r *repository) MarkTransactionRefunded(ctx context.Context, id uuid.UUID, description string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusSuccess).
		Updates(map[string]any{
			"status":      enums.TransactionStatusRefunded,
			"description": description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) firstSubscription(query *gorm.DB) (*models.Subscription, error) {
	var sub models.Subscription
	if err := query.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) firstTransaction(query *gorm.DB) (*models.Transaction, error) {
	var txn models.Transaction
	if err := query.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
