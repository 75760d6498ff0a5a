package alert

import (
	"fmt"

	"ratewatch-telegram-bot/internal/types"
	"ratewatch-telegram-bot/lib/helpers"
)

// TriggeredMessage renders the notification for a fired alert, MarkdownV2
// escaped for the telegram transport.
func TriggeredMessage(a types.Alert, rate float64) string {
	condition := "above"
	if a.Direction == types.DirectionBelow {
		condition = "below"
	}

	return fmt.Sprintf(
		"🔔 *Alert triggered*\n\n"+
			"💱 *%s → %s*\n"+
			"📈 Current rate: *%s*\n"+
			"🎯 Threshold: *%s* \\(%s\\)\n\n"+
			"_This alert has been removed\\. Set a new one with /alert\\._",
		helpers.EscapeMarkdownV2(a.FromCurrency),
		helpers.EscapeMarkdownV2(a.ToCurrency),
		helpers.FormatRate(rate),
		helpers.FormatRate(a.Threshold),
		condition,
	)
}
