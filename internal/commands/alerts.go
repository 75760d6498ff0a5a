package commands

import (
	"fmt"
	"strings"

	"ratewatch-telegram-bot/internal/types"
	"ratewatch-telegram-bot/lib/helpers"
)

// AlertUsage is the reply for a malformed /alert command.
func AlertUsage(supported []string) string {
	return fmt.Sprintf(
		"📝 *Usage:* `/alert <from> <to> <threshold> <above|below>`\n\n"+
			"💡 *Examples:*\n"+
			"▫️ `/alert USD RUB 80 above` notifies when USD rises to 80 RUB or more\n"+
			"▫️ `/alert EUR RUB 90 below` notifies when EUR falls to 90 RUB or less\n\n"+
			"💱 *Supported currencies:* %s",
		helpers.EscapeMarkdownV2(strings.Join(supported, ", ")),
	)
}

// AlertCreatedMessage confirms a stored alert, including the current rate
// when one is known.
func AlertCreatedMessage(a types.Alert, currentRate *float64) string {
	condition := "rises to"
	if a.Direction == types.DirectionBelow {
		condition = "falls to"
	}

	var sb strings.Builder
	sb.WriteString("✅ *Alert set*\n\n")
	sb.WriteString(fmt.Sprintf("💱 Pair: *%s/%s*\n", a.FromCurrency, a.ToCurrency))
	sb.WriteString(fmt.Sprintf("🎯 Fires when the rate %s *%s* or beyond\n", condition, helpers.FormatRate(a.Threshold)))
	if currentRate != nil {
		sb.WriteString(fmt.Sprintf("💹 Current rate: *%s*\n", helpers.FormatRate(*currentRate)))
	}
	sb.WriteString("\n_Checked every 30 minutes\\. Fires once, then the alert is removed\\._")
	return sb.String()
}

// AlertListMessage renders a user's outstanding alerts, newest first,
// with the live rate next to each when available.
func AlertListMessage(alerts []types.Alert, currentRates map[string]float64) string {
	if len(alerts) == 0 {
		return "📭 *You have no active alerts\\.*\n\n" +
			"Create one with `/alert USD RUB 80 above`"
	}

	var sb strings.Builder
	sb.WriteString("🔔 *Your active alerts*\n\n")
	for i, a := range alerts {
		condition := "above"
		if a.Direction == types.DirectionBelow {
			condition = "below"
		}
		sb.WriteString(fmt.Sprintf("%d\\. *%s → %s* %s *%s*\n",
			i+1, a.FromCurrency, a.ToCurrency, condition, helpers.FormatRate(a.Threshold)))

		if rate, ok := currentRates[a.FromCurrency]; ok {
			status := ""
			if a.ConditionMet(rate) {
				status = "  ✅"
			}
			sb.WriteString(fmt.Sprintf("   💱 current: %s%s\n", helpers.FormatRate(rate), status))
		}
		sb.WriteString(fmt.Sprintf("   🕒 created: %s\n", helpers.EscapeMarkdownV2(helpers.FormatDate(a.CreatedAt))))
	}
	sb.WriteString("\n_Alerts fire once and are then removed\\._")
	return sb.String()
}
