package razorpaywebhook

import "github.com/angelmondragon/saastools-backend/pkg/enums"

// Event is the envelope of a webhook delivery.
type Event struct {
	Event   enums.RazorpayEvent `json:"event"`
	Payload Payload             `json:"payload"`
}

type Payload struct {
	Payment      *entityRef `json:"payment"`
	Subscription *entityRef `json:"subscription"`
}

// entityRef accepts both the documented {entity:{...}} wrapper and a bare object.
type entityRef struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	SubscriptionID string     `json:"subscription_id"`
	Entity         *entityRef `json:"entity"`
}

func (e *entityRef) resolve() entityRef {
	if e == nil {
		return entityRef{}
	}
	if e.Entity != nil {
		return *e.Entity
	}
	return *e
}
