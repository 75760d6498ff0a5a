package commands

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/ai"
	"ratewatch-telegram-bot/lib/helpers"
	"ratewatch-telegram-bot/lib/translation"
)

// CommandAsk forwards a prompt to the assistant and maps API failures to
// user-facing replies. The returned text is MarkdownV2 escaped.
func CommandAsk(ctx context.Context, client *ai.Client, prompt string) string {
	log.Debugf("processing command /ai with prompt length %d", len(prompt))

	answer, err := client.Ask(ctx, prompt)
	switch {
	case err == nil:
		return helpers.EscapeMarkdownV2(answer)
	case errors.Is(err, ai.ErrNoAPIKey):
		return translation.Translate("❌ The assistant is not configured on this bot\\.")
	case errors.Is(err, ai.ErrQuotaExceeded), errors.Is(err, ai.ErrUnauthorized):
		log.Errorf("assistant unavailable: %v", err)
		return translation.Translate("❌ The assistant is temporarily unavailable\\.")
	case errors.Is(err, ai.ErrRateLimited):
		return translation.Translate("⏰ Too many questions right now, try again later\\.")
	default:
		log.Errorf("assistant request failed: %v", err)
		return translation.Translate("❌ The assistant did not answer, try again later\\.")
	}
}
