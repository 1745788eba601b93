package utils

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round rounds to paise.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// Percent returns pct percent of value, rounded to paise.
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(pct).Div(hundred))
}

// WholeRupees floors an amount to whole rupees, as the gateway order expects.
func WholeRupees(value decimal.Decimal) int64 {
	return value.Floor().IntPart()
}

// FormatINR renders an amount for invoices and emails.
func FormatINR(value decimal.Decimal) string {
	return "Rs. " + value.StringFixed(2)
}
