package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

// Subscription grants one user access to one tool between StartDate and EndDate.
type Subscription struct {
	ID                uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	ToolID            uuid.UUID                `gorm:"column:tool_id;type:uuid;not null;index"`
	Status            enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount            decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	StartDate         time.Time                `gorm:"column:start_date;not null"`
	EndDate           time.Time                `gorm:"column:end_date;not null"`
	RazorpayOrderID   *string                  `gorm:"column:razorpay_order_id;index"`
	RazorpayPaymentID *string                  `gorm:"column:razorpay_payment_id"`
	RazorpaySubID     *string                  `gorm:"column:razorpay_sub_id;index"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID"`
	Tool *Tool `gorm:"foreignKey:ToolID"`
}

// GrantsAccessAt reports whether the subscription is active and unexpired at now.
func (s Subscription) GrantsAccessAt(now time.Time) bool {
	return s.Status == enums.SubscriptionStatusActive && s.EndDate.After(now)
}
