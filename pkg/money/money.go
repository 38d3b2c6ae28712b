// Package money rounds and formats currency at presentation boundaries.
// Computation stays in float64 at full precision; only output goes through
// here.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Format renders v with two decimals.
func Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPct renders a percentage with two decimals and a % sign.
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Price renders a per-unit price with four decimals.
func Price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}
