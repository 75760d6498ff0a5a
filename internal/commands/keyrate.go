package commands

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/lib/helpers"
)

// CommandKeyRate builds the /keyrate reply.
func CommandKeyRate(ctx context.Context, client *rates.Client) (string, error) {
	log.Debug("processing command /keyrate")

	kr, err := client.KeyRate(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /keyrate")
	}

	return fmt.Sprintf(
		"💎 *Key interest rate*\n\n"+
			"▫️ Rate: `%s%%`\n"+
			"▫️ In effect since: %s",
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", kr.Rate)),
		helpers.EscapeMarkdownV2(kr.Date.Format("02.01.2006")),
	), nil
}
