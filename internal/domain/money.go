package domain

import "github.com/shopspring/decimal"

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatARR renders an amount the way the dashboard shows it: $0, $850K or $1.2M.
func FormatARR(v decimal.Decimal) string {
	if v.IsZero() {
		return "$0"
	}
	if v.IsNegative() {
		return "-" + formatAbs(v.Abs())
	}
	return formatAbs(v)
}

// FormatSignedARR renders a delta with an explicit sign: +$200K, −$50K.
func FormatSignedARR(v decimal.Decimal) string {
	switch {
	case v.IsZero():
		return "$0"
	case v.IsPositive():
		return "+" + formatAbs(v)
	default:
		return "−" + formatAbs(v.Abs())
	}
}

func formatAbs(abs decimal.Decimal) string {
	if abs.GreaterThanOrEqual(million) {
		return "$" + abs.Div(million).StringFixed(1) + "M"
	}
	return "$" + abs.Div(thousand).Round(0).String() + "K"
}
