package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindActiveSubscription(ctx context.Context, userID, toolID uuid.UUID, now time.Time) (*models.Subscription, error)
	FindSubscriptionByOrderID(ctx context.Context, orderID string) (*models.Subscription, error)
	FindSubscriptionByGatewayRef(ctx context.Context, gatewaySubID, orderID string) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, id uuid.UUID, paymentID string) (bool, error)
	CancelByGatewaySubID(ctx context.Context, gatewaySubID string) (int64, error)
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ActiveToolIDs(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error)
	ExpireActive(ctx context.Context, now time.Time) (int64, error)
	DeleteStalePending(ctx context.Context, createdBefore time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
	SumAmount(ctx context.Context, statuses []enums.SubscriptionStatus, startFrom *time.Time) (decimal.Decimal, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
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

// FindSubscription loads the subscription with its user and tool. Missing rows return nil, nil.
func (r *repository) FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("User").
		Preload("Tool").
		Where("id = ?", id))
}

func (r *repository) FindActiveSubscription(ctx context.Context, userID, toolID uuid.UUID, now time.Time) (*models.Subscription, error) {
	return r.first(r.db.WithContext(ctx).
		Where("user_id = ? AND tool_id = ? AND status = ? AND end_date > ?",
			userID, toolID, enums.SubscriptionStatusActive, now).
		Order("end_date DESC"))
}

func (r *repository) FindSubscriptionByOrderID(ctx context.Context, orderID string) (*models.Subscription, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("User").
		Preload("Tool").
		Where("razorpay_order_id = ?", orderID))
}

// FindSubscriptionByGatewayRef matches on the gateway subscription id first, then the order id.
func (r *repository) FindSubscriptionByGatewayRef(ctx context.Context, gatewaySubID, orderID string) (*models.Subscription, error) {
	if id := strings.TrimSpace(gatewaySubID); id != "" {
		sub, err := r.first(r.db.WithContext(ctx).
			Preload("User").
			Preload("Tool").
			Where("razorpay_sub_id = ?", id))
		if err != nil || sub != nil {
			return sub, err
		}
		// Checkout orders carry the gateway id in razorpay_order_id.
		sub, err = r.FindSubscriptionByOrderID(ctx, id)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if id := strings.TrimSpace(orderID); id != "" {
		return r.FindSubscriptionByOrderID(ctx, id)
	}
	return nil, nil
}

// ActivateSubscription moves a pending subscription to active. It reports
// false when the row is already active or has ended, so a late capture
// never revives a cancelled subscription.
func (r *repository) ActivateSubscription(ctx context.Context, id uuid.UUID, paymentID string) (bool, error) {
	updates := map[string]any{
		"status":     enums.SubscriptionStatusActive,
		"updated_at": time.Now().UTC(),
	}
	if paymentID != "" {
		updates["razorpay_payment_id"] = paymentID
	}
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status IN ?", id, enums.SubscriptionStatusesInto(enums.SubscriptionStatusActive)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CancelByGatewaySubID(ctx context.Context, gatewaySubID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("razorpay_sub_id = ? AND status <> ?", gatewaySubID, enums.SubscriptionStatusCancelled).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Preload("Tool").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ActiveToolIDs(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND end_date > ?", userID, enums.SubscriptionStatusActive, now).
		Pluck("tool_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ExpireActive cancels active subscriptions whose end date has passed.
func (r *repository) ExpireActive(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date <= ?", enums.SubscriptionStatusActive, now).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusCancelled,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// DeleteStalePending removes abandoned checkouts.
func (r *repository) DeleteStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.SubscriptionStatusPending, createdBefore).
		Delete(&models.Subscription{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date > ?", enums.SubscriptionStatusActive, now).
		Count(&count).Error
	return count, err
}

// SumAmount totals amount over the given statuses, optionally limited to start dates on or after startFrom.
func (r *repository) SumAmount(ctx context.Context, statuses []enums.SubscriptionStatus, startFrom *time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status IN ?", statuses)
	if startFrom != nil {
		query = query.Where("start_date >= ?", *startFrom)
	}
	var amounts []decimal.Decimal
	if err := query.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total, nil
}

func (r *repository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &stamps).Error
	return stamps, err
}

func (r *repository) first(query *gorm.DB) (*models.Subscription, error) {
	var sub models.Subscription
	if err := query.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
