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

var metalEmoji = map[string]string{
	"Gold":      "🥇",
	"Silver":    "🥈",
	"Platinum":  "⚪️",
	"Palladium": "⚙️",
}

// CommandMetals builds the /metals reply: accounting prices per gram.
func CommandMetals(ctx context.Context, client *rates.Client) (string, error) {
	log.Debug("processing command /metals")

	prices, err := client.Metals(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /metals")
	}

	var sb strings.Builder
	sb.WriteString("🪙 *Precious metal prices* \\(RUB per gram\\)\n\n")
	for _, p := range prices {
		emoji, ok := metalEmoji[p.Name]
		if !ok {
			emoji = "▫️"
		}
		sb.WriteString(fmt.Sprintf("%s *%s*: `%s`  \\(%s\\)\n",
			emoji, p.Name,
			helpers.FormatRate(p.Price),
			helpers.EscapeMarkdownV2(p.Date.Format("02.01.2006")),
		))
	}
	return sb.String(), nil
}
