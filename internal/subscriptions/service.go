package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
	"github.com/angelmondragon/saastools-backend/pkg/razorpay"
)

const (
	alreadySubscribedMessage = "Already subscribed to this tool"
	toolNotFoundMessage      = "Tool not found"
	subscriptionTerm         = 1 // years
)

// Service defines the subscription lifecycle surface.
type Service interface {
	Subscribe(ctx context.Context, userID, toolID uuid.UUID) (*SubscribeResponse, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*VerifyPaymentResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type toolLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tool, error)
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	KeyID() string
	Currency() string
}

type activator interface {
	Activate(ctx context.Context, sub *models.Subscription, paymentID string) (bool, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	BillingRepo       billing.Repository
	Tools             toolLookup
	Gateway           paymentGateway
	Activator         activator
	TransactionRunner txRunner
	Metrics           *metrics.BillingMetrics
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	billingRepo billing.Repository
	tools       toolLookup
	gateway     paymentGateway
	activator   activator
	txRunner    txRunner
	metrics     *metrics.BillingMetrics
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repository is required")
	}
	if params.Tools == nil {
		return nil, fmt.Errorf("tool lookup is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Activator == nil {
		return nil, fmt.Errorf("activator is required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		billingRepo: params.BillingRepo,
		tools:       params.Tools,
		gateway:     params.Gateway,
		activator:   params.Activator,
		txRunner:    params.TransactionRunner,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *service) Subscribe(ctx context.Context, userID, toolID uuid.UUID) (*SubscribeResponse, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tool")
	}
	if tool == nil || !tool.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, toolNotFoundMessage)
	}

	now := s.now()
	if err := s.ensureNotSubscribed(ctx, s.billingRepo, userID, toolID, now); err != nil {
		return nil, err
	}

	amount := tool.AnnualPrice()
	order, err := s.gateway.CreateOrder(ctx, amount, razorpay.Receipt(toolID.String(), userID.String()), map[string]string{
		"user_id": userID.String(),
		"tool_id": toolID.String(),
	})
	if err != nil {
		s.metrics.Order("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Payment gateway unavailable")
	}
	s.metrics.Order("created")

	orderID := order.ID
	sub := &models.Subscription{
		UserID:          userID,
		ToolID:          toolID,
		Status:          enums.SubscriptionStatusPending,
		Amount:          amount,
		StartDate:       now,
		EndDate:         now.AddDate(subscriptionTerm, 0, 0),
		RazorpayOrderID: &orderID,
	}
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		if err := s.ensureNotSubscribed(ctx, repo, userID, toolID, now); err != nil {
			return err
		}
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"order_id":        orderID,
		}), "subscription.pending_created")
	}

	return &SubscribeResponse{
		OrderID:        orderID,
		Amount:         amount,
		Currency:       s.gateway.Currency(),
		SubscriptionID: sub.ID,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*VerifyPaymentResponse, error) {
	if !s.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return nil, pkgerrors.New(pkgerrors.CodePaymentFailed, "Invalid payment signature")
	}

	sub, err := s.billingRepo.FindSubscriptionByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	if sub == nil || sub.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Subscription not found")
	}
	if sub.Status.Terminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Subscription has been cancelled")
	}

	if _, err := s.activator.Activate(ctx, sub, req.RazorpayPaymentID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate subscription")
	}
	return &VerifyPaymentResponse{Status: string(enums.SubscriptionStatusActive), Subscription: FromModel(*sub)}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error) {
	rows, err := s.billingRepo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	out := make([]SubscriptionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) ensureNotSubscribed(ctx context.Context, repo billing.Repository, userID, toolID uuid.UUID, now time.Time) error {
	existing, err := repo.FindActiveSubscription(ctx, userID, toolID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing subscription")
	}
	if existing != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, alreadySubscribedMessage)
	}
	return nil
}
