package model

import "github.com/shopspring/decimal"

// PriceTolerance absorbs representation rounding when comparing amounts.
var PriceTolerance = decimal.New(1, -2)

// AmountsMatch reports whether |a-b| <= 0.01.
func AmountsMatch(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(PriceTolerance)
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(a decimal.Decimal) string {
	return a.StringFixed(2)
}
