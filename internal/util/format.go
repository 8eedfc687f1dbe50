package util

import (
	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as a dollar string with two decimal places.
// Ex: 1500 -> "$1500.00".
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// TruncateContent shortens a title for log lines and notifications.
func TruncateContent(title string, maxLength int) string {
	if len(title) <= maxLength {
		return title
	}
	return title[:maxLength] + "..."
}

func StringPointer(s string) *string {
	return &s
}

func DecimalPointer(d decimal.Decimal) *decimal.Decimal {
	return &d
}
