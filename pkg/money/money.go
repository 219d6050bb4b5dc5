package money

import "github.com/shopspring/decimal"

// Amounts are stored as integer cents everywhere in the database. This
// package owns the conversion to decimal units for API payloads and events
// so the arithmetic never goes through floats.

// FromCents converts an integer cent amount to a decimal unit amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// Format renders cents as a fixed two-decimal string, e.g. 1999 -> "19.99".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// LineTotal multiplies a unit price in cents by a quantity.
func LineTotal(unitCents int64, quantity int) int64 {
	return decimal.NewFromInt(unitCents).
		Mul(decimal.NewFromInt(int64(quantity))).
		IntPart()
}
