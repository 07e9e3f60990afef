package enums

import "fmt"

// SubscriptionStatus is the lifecycle of a tool subscription. Rows start
// pending at checkout, become active once payment is confirmed and end
// cancelled, either by the gateway or by expiry.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending:   {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusActive:    {SubscriptionStatusCancelled},
	SubscriptionStatusCancelled: nil,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

// Terminal is true once no further transition is possible.
func (s SubscriptionStatus) Terminal() bool {
	return s.IsValid() && len(subscriptionTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is a legal step.
// Staying in the same status is not a transition.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SubscriptionStatusesInto lists the statuses that may move to next, in a
// stable order for use in guarded UPDATE statements.
func SubscriptionStatusesInto(next SubscriptionStatus) []SubscriptionStatus {
	var out []SubscriptionStatus
	for _, from := range []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
	} {
		if from.CanTransitionTo(next) {
			out = append(out, from)
		}
	}
	return out
}

func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid subscription status %q", value)
	}
	return status, nil
}
