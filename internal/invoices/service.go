package invoices

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/storage"
)

const pdfContentType = "application/pdf"

// Result describes a stored invoice.
type Result struct {
	InvoiceNumber string `json:"invoice_number"`
	FileName      string `json:"file_name"`
	URL           string `json:"url"`
	Data          []byte `json:"-"`
}

type subscriptionLookup interface {
	FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
}

// Service renders subscription invoices and stores them.
type Service struct {
	store storage.Store
	subs  subscriptionLookup
	now   func() time.Time
}

func NewService(store storage.Store, subs subscriptionLookup) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if subs == nil {
		return nil, fmt.Errorf("subscription lookup is required")
	}
	return &Service{store: store, subs: subs, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Number derives the invoice number for a subscription issued at the given time.
func Number(subscriptionID uuid.UUID, issuedAt time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(subscriptionID.String(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", issuedAt.Format("20060102"), short)
}

// ForSubscription builds the invoice for one year of the subscribed tool.
// Subscription must have User and Tool loaded.
func ForSubscription(sub *models.Subscription, issuedAt time.Time) Invoice {
	inv := Invoice{
		Number: Number(sub.ID, issuedAt),
		Date:   issuedAt,
		Tax:    decimal.Zero,
	}
	if sub.User != nil {
		inv.CustomerName = sub.User.Name
		inv.CustomerEmail = sub.User.Email
	}
	description := "Annual subscription"
	if sub.Tool != nil {
		description = sub.Tool.Name + " - annual subscription"
	}
	inv.Items = []Item{{Description: description, Quantity: 1, Price: sub.Amount}}
	return inv
}

// Generate renders and stores the invoice for sub.
func (s *Service) Generate(ctx context.Context, sub *models.Subscription) (*Result, error) {
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Subscription not found")
	}
	inv := ForSubscription(sub, s.now())
	data, err := Render(inv)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	fileName := inv.FileName()
	if err := s.store.Save(ctx, fileName, bytes.NewReader(data), pdfContentType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store invoice")
	}
	return &Result{
		InvoiceNumber: inv.Number,
		FileName:      fileName,
		URL:           s.store.URL(fileName),
		Data:          data,
	}, nil
}

// GenerateByID loads the subscription and generates its invoice.
func (s *Service) GenerateByID(ctx context.Context, subscriptionID uuid.UUID) (*Result, error) {
	sub, err := s.subs.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	return s.Generate(ctx, sub)
}

// ForOwner renders the invoice on demand for the subscription owner without storing it.
func (s *Service) ForOwner(ctx context.Context, subscriptionID, userID uuid.UUID) (*Result, error) {
	sub, err := s.subs.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	if sub == nil || sub.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Subscription not found")
	}
	inv := ForSubscription(sub, sub.StartDate)
	data, err := Render(inv)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	return &Result{InvoiceNumber: inv.Number, FileName: inv.FileName(), Data: data}, nil
}
