package paystack

import "github.com/shopspring/decimal"

var minorFactor = decimal.NewFromInt(100)

// ToMinor converts a major-unit amount into the integer minor units the
// gateway expects, rounding half-up to the nearest minor unit.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(minorFactor).Round(0).IntPart()
}

// FromMinor converts gateway minor units back into a major-unit amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorFactor)
}
