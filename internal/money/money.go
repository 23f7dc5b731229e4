// Package money converts between decimal currency amounts and the int64 cent
// values stored in the database, and computes fees on cents.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for currency amounts.
const Scale = 2

var (
	bpsDivisor = decimal.NewFromInt(10000)
	maxCents   = decimal.NewFromInt(math.MaxInt64)
	minCents   = decimal.NewFromInt(math.MinInt64)
)

// ToCents quantizes a currency amount to two decimals, rounding half away from
// zero, and returns it as integer cents. 19.999 becomes 2000.
// Callers must check InRange first; out of range amounts wrap.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(Scale).Shift(Scale).IntPart()
}

// InRange reports whether amount quantizes to a cent value that fits in int64.
func InRange(amount decimal.Decimal) bool {
	cents := amount.Round(Scale).Shift(Scale)
	return cents.GreaterThanOrEqual(minCents) && cents.LessThanOrEqual(maxCents)
}

// FromCents returns the currency amount for an integer cent value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Format renders cents as a fixed two-decimal string.
func Format(cents int64) string {
	return FromCents(cents).StringFixed(Scale)
}

// Fee returns amount*bps/10000 + flat, rounded to the nearest cent.
// A zero or negative amount carries no percentage component.
func Fee(amount, bps, flat int64) int64 {
	var pct int64
	if amount > 0 && bps > 0 {
		pct = decimal.NewFromInt(amount).
			Mul(decimal.NewFromInt(bps)).
			Div(bpsDivisor).
			Round(0).
			IntPart()
	}
	return pct + flat
}
