package razorpaywebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/internal/invoices"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
)

type signatureVerifier interface {
	HasWebhookSecret() bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

type activator interface {
	Activate(ctx context.Context, sub *models.Subscription, paymentID string) (bool, error)
}

type invoiceGenerator interface {
	Generate(ctx context.Context, sub *models.Subscription) (*invoices.Result, error)
}

// Delivery is one inbound webhook request.
type Delivery struct {
	Body      []byte
	Signature string
	EventID   string
}

type ServiceParams struct {
	BillingRepo billing.Repository
	Verifier    signatureVerifier
	Activator   activator
	Invoices    invoiceGenerator
	Guard       *IdempotencyGuard
	Metrics     *metrics.BillingMetrics
	Logger      *logger.Logger
}

type Service struct {
	billingRepo billing.Repository
	verifier    signatureVerifier
	activator   activator
	invoices    invoiceGenerator
	guard       *IdempotencyGuard
	metrics     *metrics.BillingMetrics
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Activator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activator required")
	}
	if params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice generator required")
	}
	return &Service{
		billingRepo: params.BillingRepo,
		verifier:    params.Verifier,
		activator:   params.Activator,
		invoices:    params.Invoices,
		guard:       params.Guard,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Handle authenticates, deduplicates and applies one delivery.
func (s *Service) Handle(ctx context.Context, d Delivery) error {
	if strings.TrimSpace(d.Signature) == "" {
		s.metrics.Webhook("unknown", "missing_signature")
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing signature")
	}
	if s.verifier.HasWebhookSecret() && !s.verifier.VerifyWebhookSignature(d.Body, d.Signature) {
		s.metrics.Webhook("unknown", "invalid_signature")
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid signature")
	}

	var event Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		s.metrics.Webhook("unknown", "invalid_payload")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid webhook payload")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"webhook_event":    event.Event.String(),
			"webhook_event_id": d.EventID,
		})
	}

	if s.guard != nil && d.EventID != "" {
		duplicate, err := s.guard.CheckAndMark(ctx, d.EventID)
		if err != nil {
			s.metrics.Webhook(event.Event.String(), "error")
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
		}
		if duplicate {
			s.metrics.Webhook(event.Event.String(), "duplicate")
			if s.logg != nil {
				s.logg.Info(ctx, "webhook.duplicate")
			}
			return nil
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		s.metrics.Webhook(event.Event.String(), "error")
		if s.guard != nil && d.EventID != "" {
			if releaseErr := s.guard.Release(ctx, d.EventID); releaseErr != nil && s.logg != nil {
				s.logg.Error(ctx, "webhook.release_failed", releaseErr)
			}
		}
		return err
	}
	s.metrics.Webhook(event.Event.String(), "processed")
	return nil
}

func (s *Service) dispatch(ctx context.Context, event Event) error {
	switch event.Event {
	case enums.RazorpayEventPaymentCaptured:
		return s.paymentCaptured(ctx, event.Payload.Payment.resolve())
	case enums.RazorpayEventSubscriptionCharged:
		return s.subscriptionCharged(ctx, event.Payload)
	case enums.RazorpayEventSubscriptionCancelled:
		return s.subscriptionCancelled(ctx, event.Payload.Subscription.resolve())
	default:
		if s.logg != nil {
			s.logg.Info(ctx, "webhook.unhandled_event")
		}
		return nil
	}
}

func (s *Service) paymentCaptured(ctx context.Context, payment entityRef) error {
	sub, err := s.billingRepo.FindSubscriptionByGatewayRef(ctx, payment.SubscriptionID, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find subscription for payment")
	}
	if sub == nil {
		s.warnUnmatched(ctx, payment.SubscriptionID, payment.OrderID)
		return nil
	}
	if !sub.Status.CanTransitionTo(enums.SubscriptionStatusActive) {
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{
				"subscription_id": sub.ID.String(),
				"status":          sub.Status.String(),
			})
			s.logg.Info(ctx, "webhook.capture_ignored")
		}
		return nil
	}
	if _, err := s.activator.Activate(ctx, sub, payment.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate subscription")
	}
	return nil
}

func (s *Service) subscriptionCharged(ctx context.Context, payload Payload) error {
	subscription := payload.Subscription.resolve()
	payment := payload.Payment.resolve()
	gatewaySubID := subscription.ID
	if gatewaySubID == "" {
		gatewaySubID = payment.SubscriptionID
	}

	sub, err := s.billingRepo.FindSubscriptionByGatewayRef(ctx, gatewaySubID, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find subscription for charge")
	}
	if sub == nil {
		s.warnUnmatched(ctx, gatewaySubID, payment.OrderID)
		return nil
	}
	res, err := s.invoices.Generate(ctx, sub)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate renewal invoice")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"invoice_number":  res.InvoiceNumber,
		})
		s.logg.Info(ctx, "invoice.renewal_generated")
	}
	return nil
}

func (s *Service) subscriptionCancelled(ctx context.Context, subscription entityRef) error {
	if subscription.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}
	affected, err := s.billingRepo.CancelByGatewaySubID(ctx, subscription.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel subscription")
	}
	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "cancelled", affected)
		s.logg.Info(ctx, "subscription.cancelled")
	}
	return nil
}

func (s *Service) warnUnmatched(ctx context.Context, gatewaySubID, orderID string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"razorpay_sub_id":   gatewaySubID,
		"razorpay_order_id": orderID,
	})
	s.logg.Warn(ctx, "webhook.subscription_not_found")
}
