package folio

import (
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// decimalEqual compares decimals by value, so that "10" equals "10.0".
var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// D parses a decimal literal, for tests only.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// P returns a pointer to a decimal literal, for tests only.
func P(s string) *decimal.Decimal {
	d := D(s)
	return &d
}
