package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	require.Equal(t, "USD \\-\\> RUB \\(80\\.5\\)", EscapeMarkdownV2("USD -> RUB (80.5)"))
	require.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}

func TestFormatRate(t *testing.T) {
	require.Equal(t, "81\\.45", FormatRate(81.451))
	require.Equal(t, "1,234\\.50", FormatRate(1234.5))
}

func TestFormatPriceUS(t *testing.T) {
	require.Equal(t, "64,123", FormatPriceUS(64123.2, false))
	require.Equal(t, "81.45", FormatPriceUS(81.451, false))
	require.Equal(t, "0.00000042", FormatPriceUS(0.00000042, false))
	require.Equal(t, "81\\.45", FormatPriceUS(81.451, true))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	require.Equal(t, "29 Aug 2026 10:30", FormatDate(ts))
	require.Equal(t, "unknown", FormatDate(time.Time{}))
}
