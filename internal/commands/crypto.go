package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/price"
	"ratewatch-telegram-bot/lib/helpers"
)

const cryptoTopCount = 10

// CommandCrypto builds the /crypto reply from the in-memory price cache.
func CommandCrypto(cache *price.Cache) (string, error) {
	log.Debug("processing command /crypto")

	top := cache.Top(cryptoTopCount)
	if len(top) == 0 {
		return "", errors.New("crypto prices not loaded yet")
	}

	var sb strings.Builder
	sb.WriteString("₿ *Cryptocurrency prices* \\(USD\\)\n\n")
	for _, info := range top {
		arrow := "📈"
		if info.Change24h < 0 {
			arrow = "📉"
		}
		sb.WriteString(fmt.Sprintf("▫️ *%s* \\(%s\\): `$%s`  %s %s%%\n",
			helpers.EscapeMarkdownV2(info.Name),
			helpers.EscapeMarkdownV2(info.Symbol),
			helpers.FormatPriceUS(info.PriceUSD, true),
			arrow,
			helpers.EscapeMarkdownV2(fmt.Sprintf("%+.2f", info.Change24h)),
		))
	}

	sb.WriteString(fmt.Sprintf("\n_Updated %s_", helpers.EscapeMarkdownV2(humanize.Time(top[0].FetchedAt))))
	return sb.String(), nil
}
