package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money values are carried as int64 minor units (cents). All arithmetic on
// invoice amounts happens in minor units; decimals only appear at the API
// boundary, rounded half-up to two places.

// ToMinor converts a decimal amount (e.g. "12.345") to minor units,
// rounding half-up to cents.
func ToMinor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// ParseMinor parses a decimal string into minor units.
func ParseMinor(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToMinor(d), nil
}

// FromMinor formats minor units as a fixed two-decimal string.
func FromMinor(m int64) string {
	return decimal.New(m, -2).StringFixed(2)
}

// Decimal returns the decimal representation of minor units.
func Decimal(m int64) decimal.Decimal {
	return decimal.New(m, -2)
}

// MulQuantity computes quantity * rate in minor units, rounding half-up at
// cent precision. The rate is already in minor units, so rounding happens
// exactly once, after the multiplication.
func MulQuantity(quantity decimal.Decimal, rateMinor int64) int64 {
	return quantity.Mul(decimal.NewFromInt(rateMinor)).Round(0).IntPart()
}

// Float converts minor units to a float for JSON display. Only used when
// marshaling responses, never for arithmetic.
func Float(m int64) float64 {
	f, _ := decimal.New(m, -2).Float64()
	return f
}
