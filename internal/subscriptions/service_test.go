package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/invoices"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/db/dbtest"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/razorpay"
)

type fakeGateway struct {
	orders   int
	amount   decimal.Decimal
	receipt  string
	err      error
	validSig string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.orders++
	f.amount = amount
	f.receipt = receipt
	return &razorpay.Order{ID: "order_" + uuid.NewString()[:8], Amount: razorpay.ToPaise(amount), Currency: "INR", Receipt: receipt}, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == f.validSig
}

func (f *fakeGateway) KeyID() string    { return "rzp_test_key" }
func (f *fakeGateway) Currency() string { return "INR" }

type recordingMailer struct {
	sent []map[string]string
	att  []*email.Attachment
}

func (r *recordingMailer) SendSubscriptionConfirmed(ctx context.Context, to string, vars map[string]string, invoice *email.Attachment) bool {
	r.sent = append(r.sent, vars)
	r.att = append(r.att, invoice)
	return true
}

type stubInvoices struct{}

func (stubInvoices) Generate(ctx context.Context, sub *models.Subscription) (*invoices.Result, error) {
	return &invoices.Result{InvoiceNumber: "INV-1", FileName: "invoice-INV-1.pdf", Data: []byte("%PDF-")}, nil
}

type fixture struct {
	client  *db.Client
	svc     Service
	gateway *fakeGateway
	mailer  *recordingMailer
	user    *models.User
	tool    *models.Tool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()

	user := &models.User{Email: "seller@example.com", PasswordHash: "h", Name: "Seller", IsVerified: true}
	require.NoError(t, conn.Create(user).Error)
	tool := &models.Tool{Slug: models.KeywordResearchSlug, Name: models.KeywordResearchName, Price: decimal.NewFromInt(499), IsActive: true}
	require.NoError(t, conn.Create(tool).Error)

	repo := billing.NewRepository(conn)
	mailer := &recordingMailer{}
	activator, err := NewActivator(ActivatorParams{Repo: repo, Mailer: mailer, Invoices: stubInvoices{}, AppURL: "https://app.saastools.in/"})
	require.NoError(t, err)

	gateway := &fakeGateway{validSig: "good"}
	svc, err := NewService(ServiceParams{
		BillingRepo:       repo,
		Tools:             tools.NewRepository(conn),
		Gateway:           gateway,
		Activator:         activator,
		TransactionRunner: client,
	})
	require.NoError(t, err)
	return &fixture{client: client, svc: svc, gateway: gateway, mailer: mailer, user: user, tool: tool}
}

func TestSubscribeCreatesPendingAnnualSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Subscribe(ctx, f.user.ID, f.tool.ID)
	require.NoError(t, err)

	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(5988)))
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	assert.NotEmpty(t, resp.OrderID)
	assert.LessOrEqual(t, len(f.gateway.receipt), razorpay.MaxReceiptLength)
	assert.Contains(t, f.gateway.receipt, "tool_")

	var sub models.Subscription
	require.NoError(t, f.client.DB().First(&sub, "id = ?", resp.SubscriptionID).Error)
	assert.Equal(t, enums.SubscriptionStatusPending, sub.Status)
	require.NotNil(t, sub.RazorpayOrderID)
	assert.Equal(t, resp.OrderID, *sub.RazorpayOrderID)
	assert.WithinDuration(t, sub.StartDate.AddDate(1, 0, 0), sub.EndDate, time.Second)
}

func TestSubscribeUnknownTool(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Subscribe(context.Background(), f.user.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, f.gateway.orders)
}

func TestSubscribeRejectsWhenAlreadyActive(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	require.NoError(t, f.client.DB().Create(&models.Subscription{
		UserID: f.user.ID, ToolID: f.tool.ID, Status: enums.SubscriptionStatusActive,
		Amount: decimal.NewFromInt(5988), StartDate: now, EndDate: now.AddDate(1, 0, 0),
	}).Error)

	_, err := f.svc.Subscribe(context.Background(), f.user.ID, f.tool.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, alreadySubscribedMessage, pkgerrors.As(err).Message())
	assert.Zero(t, f.gateway.orders)
}

func TestSubscribeGatewayFailureIsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("razorpay down")

	_, err := f.svc.Subscribe(context.Background(), f.user.ID, f.tool.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVerifyPaymentActivatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Subscribe(ctx, f.user.ID, f.tool.ID)
	require.NoError(t, err)

	req := VerifyPaymentRequest{RazorpayOrderID: resp.OrderID, RazorpayPaymentID: "pay_1", RazorpaySignature: "bad"}
	_, err = f.svc.VerifyPayment(ctx, f.user.ID, req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentFailed))

	req.RazorpaySignature = "good"
	_, err = f.svc.VerifyPayment(ctx, uuid.New(), req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	out, err := f.svc.VerifyPayment(ctx, f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "active", out.Status)

	_, err = f.svc.VerifyPayment(ctx, f.user.ID, req)
	require.NoError(t, err)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, models.KeywordResearchName, f.mailer.sent[0]["toolName"])
	assert.Equal(t, "5988.00", f.mailer.sent[0]["amount"])
	assert.Equal(t, "https://app.saastools.in", f.mailer.sent[0]["appUrl"])
	require.NotNil(t, f.mailer.att[0])

	subs, err := f.svc.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, enums.SubscriptionStatusActive, subs[0].Status)
	require.NotNil(t, subs[0].Tool)
	assert.True(t, subs[0].Tool.HasAccess)
}
