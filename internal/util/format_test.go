package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatUSD(t *testing.T) {
	require.Equal(t, "$1500.00", FormatUSD(decimal.RequireFromString("1500")))
	require.Equal(t, "$15.50", FormatUSD(decimal.RequireFromString("15.5")))
	require.Equal(t, "$0.99", FormatUSD(decimal.RequireFromString("0.99")))
}

func TestTruncateContent(t *testing.T) {
	require.Equal(t, "short", TruncateContent("short", 10))
	require.Equal(t, "exactly-10", TruncateContent("exactly-10", 10))
	require.Equal(t, "a very lon...", TruncateContent("a very long auction title", 10))
}
