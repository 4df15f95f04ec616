// Package types provides common types shared across the billing engine.
package types

import "github.com/shopspring/decimal"

// Amount is an exact decimal monetary value in the regie's single implicit
// currency. It is an alias for decimal.Decimal so that all arithmetic stays
// exact; rounding happens only at human-readable formatting, never inside
// the engine.
type Amount = decimal.Decimal

// ZeroAmount is the zero monetary value.
var ZeroAmount = decimal.Zero

// AmountFromInt builds an Amount from a whole number of currency units.
func AmountFromInt(v int64) Amount {
	return decimal.NewFromInt(v)
}

// AmountFromString parses an exact decimal string such as "42.50".
func AmountFromString(s string) (Amount, error) {
	return decimal.NewFromString(s)
}

// MustAmount is like AmountFromString but panics on error.
// Use for hardcoded literals in configuration and tests.
func MustAmount(s string) Amount {
	return decimal.RequireFromString(s)
}

// MinAmount returns the smaller of two amounts.
func MinAmount(a, b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// SumAmounts adds up a slice of amounts.
func SumAmounts(values ...Amount) Amount {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
