package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

// SubscribeResponse carries what the checkout widget needs to open the order.
type SubscribeResponse struct {
	OrderID        string          `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	KeyID          string          `json:"key_id"`
}

// VerifyPaymentRequest is posted by the checkout success handler.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type VerifyPaymentResponse struct {
	Status       string          `json:"status"`
	Subscription SubscriptionDTO `json:"subscription"`
}

// SubscriptionDTO is the API shape of a subscription.
type SubscriptionDTO struct {
	ID        uuid.UUID                `json:"id"`
	ToolID    uuid.UUID                `json:"tool_id"`
	Status    enums.SubscriptionStatus `json:"status"`
	Amount    decimal.Decimal          `json:"amount"`
	StartDate time.Time                `json:"start_date"`
	EndDate   time.Time                `json:"end_date"`
	Tool      *tools.ToolDTO           `json:"tool,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

func FromModel(sub models.Subscription) SubscriptionDTO {
	dto := SubscriptionDTO{
		ID:        sub.ID,
		ToolID:    sub.ToolID,
		Status:    sub.Status,
		Amount:    sub.Amount,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		CreatedAt: sub.CreatedAt,
	}
	if sub.Tool != nil {
		tool := tools.FromModel(*sub.Tool, sub.Status == enums.SubscriptionStatusActive)
		dto.Tool = &tool
	}
	return dto
}
