package email

import (
	"context"
	"errors"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/angelmondragon/saastools-backend/pkg/config"
)

var ErrSMTPNotConfigured = errors.New("smtp host not configured")

// Attachment is an in-memory file sent alongside a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers mail through an SMTP relay with gomail.
type SMTPSender struct {
	from   string
	dialer dialer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	var d dialer
	if strings.TrimSpace(cfg.Host) != "" {
		d = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return &SMTPSender{from: cfg.Sender(), dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.dialer == nil {
		return ErrSMTPNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildMessage(s.from, msg))
}

func buildMessage(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	for _, att := range msg.Attachments {
		data := att.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Name, settings...)
	}
	return m
}
