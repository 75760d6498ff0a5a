package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/lib/helpers"
)

// CommandRates builds the /rates reply: today's official quotes plus the
// change against tomorrow's publication when the bank has released it.
func CommandRates(ctx context.Context, client *rates.Client) (string, error) {
	log.Debug("processing command /rates")

	daily, err := client.RatesWithTomorrow(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /rates")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💱 *Official exchange rates* \\(%s\\)\n\n", helpers.EscapeMarkdownV2(daily.Date)))

	for _, code := range rates.SupportedCurrencies {
		rate, ok := daily.Today[code]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("▫️ *%s*: `%s` RUB", code, helpers.FormatRate(rate.Value)))

		if change, ok := daily.Changes[code]; ok {
			arrow := "📈"
			if change.Change < 0 {
				arrow = "📉"
			}
			sb.WriteString(fmt.Sprintf("  %s %s \\(%s%%\\)",
				arrow,
				helpers.EscapeMarkdownV2(fmt.Sprintf("%+.2f", change.Change)),
				helpers.EscapeMarkdownV2(fmt.Sprintf("%+.2f", change.ChangePercent)),
			))
		}
		sb.WriteString("\n")
	}

	if daily.Tomorrow != nil {
		sb.WriteString("\n_Changes are against tomorrow's published rates\\._")
	}
	return sb.String(), nil
}
