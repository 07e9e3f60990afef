package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
)

const (
	subscriptionExpiryJobName = "subscription-expiry"
	defaultPendingTTL         = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubscriptionExpiryJobParams configures the subscription maintenance job.
type SubscriptionExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository billing.Repository
	Metrics    *metrics.CronJobMetrics
	PendingTTL time.Duration
}

// NewSubscriptionExpiryJob cancels lapsed subscriptions and drops abandoned checkouts.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &subscriptionExpiryJob{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repository,
		metrics:    params.Metrics,
		pendingTTL: ttl,
		now:        time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg       *logger.Logger
	db         txRunner
	repo       billing.Repository
	metrics    *metrics.CronJobMetrics
	pendingTTL time.Duration
	now        func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return subscriptionExpiryJobName }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error
	if err := j.expireActive(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if err := j.deleteStalePending(ctx, now); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *subscriptionExpiryJob) expireActive(ctx context.Context, now time.Time) error {
	var expired int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.WithTx(tx).ExpireActive(ctx, now)
		if err != nil {
			return err
		}
		expired = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}
	j.metrics.AddAffected(j.Name(), expired)
	j.logg.Info(j.logg.WithField(ctx, "rows_expired", expired), "expired subscriptions cancelled")
	return nil
}

func (j *subscriptionExpiryJob) deleteStalePending(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-j.pendingTTL)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.WithTx(tx).DeleteStalePending(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete stale pending subscriptions: %w", err)
	}
	j.metrics.AddAffected(j.Name(), deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale pending subscriptions deleted")
	return nil
}
