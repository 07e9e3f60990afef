// Package razorpay adapts the Razorpay SDK to the billing flows: order
// creation plus checkout and webhook signature checks.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/pkg/config"
)

// MaxReceiptLength is the longest receipt Razorpay accepts on an order.
const MaxReceiptLength = 40

// ErrNotConfigured is returned when API credentials are missing.
var ErrNotConfigured = errors.New("razorpay credentials not configured")

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Order is the subset of a Razorpay order the checkout flow returns to clients.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Client wraps the SDK client with the configured secrets.
type Client struct {
	orders        orderAPI
	keyID         string
	keySecret     string
	webhookSecret string
	currency      string
}

func NewClient(cfg config.RazorpayConfig) *Client {
	c := &Client{
		keyID:         strings.TrimSpace(cfg.KeyID),
		keySecret:     strings.TrimSpace(cfg.KeySecret),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      cfg.Currency,
	}
	if c.currency == "" {
		c.currency = "INR"
	}
	if cfg.Enabled() {
		c.orders = razorpay.NewClient(c.keyID, c.keySecret).Order
	}
	return c
}

func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) Currency() string {
	return c.currency
}

// HasWebhookSecret reports whether webhook payloads can be authenticated.
func (c *Client) HasWebhookSecret() bool {
	return c.webhookSecret != ""
}

// CreateOrder opens an order for amount (in rupees) and returns the gateway's view of it.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*Order, error) {
	if c.orders == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paise := ToPaise(amount)
	if paise <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %s", amount)
	}

	data := map[string]interface{}{
		"amount":   paise,
		"currency": c.currency,
		"receipt":  TruncateReceipt(receipt),
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	resp, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	return orderFromResponse(resp, paise, c.currency)
}

// VerifyPaymentSignature checks the checkout callback HMAC over "orderID|paymentID".
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, c.keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, c.webhookSecret)
}

// ToPaise converts rupees to the integer minor unit Razorpay expects.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Receipt builds the order receipt for a tool purchase.
func Receipt(toolID, userID string) string {
	return TruncateReceipt(fmt.Sprintf("tool_%s_%s", toolID, userID))
}

func TruncateReceipt(receipt string) string {
	if len(receipt) <= MaxReceiptLength {
		return receipt
	}
	return receipt[:MaxReceiptLength]
}

func orderFromResponse(resp map[string]interface{}, fallbackAmount int64, fallbackCurrency string) (*Order, error) {
	id, _ := resp["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order response missing id")
	}
	order := &Order{ID: id, Amount: fallbackAmount, Currency: fallbackCurrency}
	switch v := resp["amount"].(type) {
	case float64:
		order.Amount = int64(v)
	case int64:
		order.Amount = v
	case int:
		order.Amount = int64(v)
	}
	if cur, ok := resp["currency"].(string); ok && cur != "" {
		order.Currency = cur
	}
	order.Receipt, _ = resp["receipt"].(string)
	return order, nil
}
