package enums

import "slices"

// BillingInterval is how often a plan charges the member.
type BillingInterval string

const (
	BillingIntervalMonthly  BillingInterval = "monthly"
	BillingIntervalAnnually BillingInterval = "annually"
)

var billingIntervals = []BillingInterval{BillingIntervalMonthly, BillingIntervalAnnually}

func (b BillingInterval) String() string { return string(b) }

func (b BillingInterval) IsValid() bool { return slices.Contains(billingIntervals, b) }

// ParseBillingInterval ignores case because the gateway echoes intervals in
// its own casing.
func ParseBillingInterval(value string) (BillingInterval, error) {
	return parse("billing interval", value, billingIntervals)
}
