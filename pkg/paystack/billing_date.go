package paystack

import (
	"time"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// NextBillingDate advances start by one billing interval. The day of month is
// clamped to the last day of the target month, so Jan 31 + 1 month is the end
// of February and Feb 29 + 1 year is Feb 28. An unknown interval returns
// start unchanged.
func NextBillingDate(start time.Time, interval enums.BillingInterval) time.Time {
	switch interval {
	case enums.BillingIntervalMonthly:
		return addMonthsClamped(start, 1)
	case enums.BillingIntervalAnnually:
		return addMonthsClamped(start, 12)
	default:
		return start
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month(), t.Location())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
