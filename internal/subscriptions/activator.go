package subscriptions

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/invoices"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
)

type confirmationMailer interface {
	SendSubscriptionConfirmed(ctx context.Context, to string, vars map[string]string, invoice *email.Attachment) bool
}

type invoiceGenerator interface {
	Generate(ctx context.Context, sub *models.Subscription) (*invoices.Result, error)
}

// Activator moves a paid subscription to active and confirms it to the user.
// Both the checkout callback and the payment.captured webhook go through it.
type Activator struct {
	repo     billing.Repository
	mailer   confirmationMailer
	invoices invoiceGenerator
	metrics  *metrics.BillingMetrics
	logg     *logger.Logger
	appURL   string
}

type ActivatorParams struct {
	Repo     billing.Repository
	Mailer   confirmationMailer
	Invoices invoiceGenerator
	Metrics  *metrics.BillingMetrics
	Logger   *logger.Logger
	AppURL   string
}

func NewActivator(params ActivatorParams) (*Activator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("billing repository is required")
	}
	return &Activator{
		repo:     params.Repo,
		mailer:   params.Mailer,
		invoices: params.Invoices,
		metrics:  params.Metrics,
		logg:     params.Logger,
		appURL:   strings.TrimRight(params.AppURL, "/"),
	}, nil
}

// Activate marks sub active and records paymentID. It returns false without side
// effects when sub was already active. sub must have User and Tool loaded.
func (a *Activator) Activate(ctx context.Context, sub *models.Subscription, paymentID string) (bool, error) {
	changed, err := a.repo.ActivateSubscription(ctx, sub.ID, paymentID)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	sub.Status = enums.SubscriptionStatusActive
	if paymentID != "" {
		sub.RazorpayPaymentID = &paymentID
	}

	a.metrics.Activation()
	if a.logg != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"user_id":         sub.UserID.String(),
		})
		a.logg.Info(ctx, "subscription.activated")
	}
	a.confirm(ctx, sub)
	return true, nil
}

// confirm sends the confirmation email with the invoice attached. Failures are
// logged only; the activation has already committed.
func (a *Activator) confirm(ctx context.Context, sub *models.Subscription) {
	if a.mailer == nil || sub.User == nil {
		return
	}

	var attachment *email.Attachment
	if a.invoices != nil {
		res, err := a.invoices.Generate(ctx, sub)
		if err != nil {
			if a.logg != nil {
				a.logg.Error(ctx, "invoice.generate_failed", err)
			}
		} else {
			attachment = &email.Attachment{Name: res.FileName, ContentType: "application/pdf", Data: res.Data}
		}
	}

	toolName := ""
	if sub.Tool != nil {
		toolName = sub.Tool.Name
	}
	a.mailer.SendSubscriptionConfirmed(ctx, sub.User.Email, map[string]string{
		"name":     sub.User.Name,
		"toolName": toolName,
		"amount":   sub.Amount.StringFixed(2),
		"appUrl":   a.appURL,
	}, attachment)
}
