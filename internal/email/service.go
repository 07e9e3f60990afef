package email

import (
	"context"
	"fmt"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

// Template names stored in email_templates.
const (
	TemplateWelcome               = "welcome"
	TemplatePasswordReset         = "password_reset"
	TemplateSubscriptionConfirmed = "subscription_confirmed"
)

type templateRepository interface {
	FindActiveByName(ctx context.Context, name string) (*models.EmailTemplate, error)
}

// Service renders stored templates and hands them to a Sender.
// Failures are logged and reported as false, never returned to callers.
type Service struct {
	templates templateRepository
	sender    Sender
	logg      *logger.Logger
}

func NewService(templates templateRepository, sender Sender, logg *logger.Logger) (*Service, error) {
	if templates == nil {
		return nil, fmt.Errorf("template repository is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	return &Service{templates: templates, sender: sender, logg: logg}, nil
}

// SendTemplate renders name with vars and delivers it to the recipient.
func (s *Service) SendTemplate(ctx context.Context, name, to string, vars map[string]string, attachments ...Attachment) bool {
	ctx = s.withFields(ctx, name, to)

	tpl, err := s.templates.FindActiveByName(ctx, name)
	if err != nil {
		s.logError(ctx, "email.template_lookup_failed", err)
		return false
	}
	if tpl == nil {
		s.logWarn(ctx, "email.template_missing")
		return false
	}

	rendered := Render(tpl, vars)
	err = s.sender.Send(ctx, Message{
		To:          to,
		Subject:     rendered.Subject,
		HTML:        rendered.HTML,
		Text:        rendered.Text,
		Attachments: attachments,
	})
	if err != nil {
		s.logError(ctx, "email.send_failed", err)
		return false
	}
	if s.logg != nil {
		s.logg.Info(ctx, "email.sent")
	}
	return true
}

func (s *Service) SendWelcome(ctx context.Context, to, name, verificationURL string) bool {
	return s.SendTemplate(ctx, TemplateWelcome, to, map[string]string{
		"name":            name,
		"verificationUrl": verificationURL,
	})
}

func (s *Service) SendPasswordReset(ctx context.Context, to, name, resetURL string) bool {
	return s.SendTemplate(ctx, TemplatePasswordReset, to, map[string]string{
		"name":     name,
		"resetUrl": resetURL,
	})
}

func (s *Service) SendSubscriptionConfirmed(ctx context.Context, to string, vars map[string]string, invoice *Attachment) bool {
	var attachments []Attachment
	if invoice != nil {
		attachments = append(attachments, *invoice)
	}
	return s.SendTemplate(ctx, TemplateSubscriptionConfirmed, to, vars, attachments...)
}

func (s *Service) withFields(ctx context.Context, name, to string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithFields(ctx, map[string]any{
		"template": name,
		"to":       to,
	})
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
