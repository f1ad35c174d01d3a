package enums

import "slices"

// SubscriptionStatus is the local lifecycle state of a member subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive      SubscriptionStatus = "active"
	SubscriptionStatusNonRenewing SubscriptionStatus = "non_renewing"
	SubscriptionStatusInactive    SubscriptionStatus = "inactive"
	SubscriptionStatusCancelled   SubscriptionStatus = "cancelled"
)

var subscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusNonRenewing,
	SubscriptionStatusInactive,
	SubscriptionStatusCancelled,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool { return slices.Contains(subscriptionStatuses, s) }

// Live reports whether the member still has access under this subscription.
func (s SubscriptionStatus) Live() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusNonRenewing
}

// CanTransitionTo guards status changes driven by gateway events. Statuses
// only move away from active; a subscription that stopped is never revived.
func (s SubscriptionStatus) CanTransitionTo(to SubscriptionStatus) bool {
	switch to {
	case SubscriptionStatusNonRenewing:
		return s == SubscriptionStatusActive
	case SubscriptionStatusInactive, SubscriptionStatusCancelled:
		return s.Live()
	}
	return false
}

func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	return parse("subscription status", value, subscriptionStatuses)
}
