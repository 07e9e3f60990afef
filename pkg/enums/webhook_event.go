package enums

// RazorpayEvent names the webhook events the billing handler understands.
type RazorpayEvent string

const (
	RazorpayEventPaymentCaptured       RazorpayEvent = "payment.captured"
	RazorpayEventSubscriptionCharged   RazorpayEvent = "subscription.charged"
	RazorpayEventSubscriptionCancelled RazorpayEvent = "subscription.cancelled"
)

// String implements fmt.Stringer.
func (e RazorpayEvent) String() string {
	return string(e)
}

// IsHandled reports whether the event triggers any processing.
func (e RazorpayEvent) IsHandled() bool {
	switch e {
	case RazorpayEventPaymentCaptured, RazorpayEventSubscriptionCharged, RazorpayEventSubscriptionCancelled:
		return true
	default:
		return false
	}
}
