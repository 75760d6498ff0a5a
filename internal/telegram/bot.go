package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/ai"
	"ratewatch-telegram-bot/internal/commands"
	"ratewatch-telegram-bot/internal/database"
	"ratewatch-telegram-bot/internal/price"
	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/internal/types"
	"ratewatch-telegram-bot/lib/helpers"
	"ratewatch-telegram-bot/lib/translation"
)

const commandTimeout = 30 * time.Second

// NewBot creates new telegram bot
func NewBot(c BotConfig, db *database.DB, ratesClient *rates.Client, prices *price.Cache, assistant *ai.Client) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:       bot,
		Config:    c,
		db:        db,
		rates:     ratesClient,
		prices:    prices,
		assistant: assistant,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// Notify delivers a triggered alert to its owner's chat.
func (b *Bot) Notify(chatID int64, text string) error {
	if err := b.SendMessage(Message{ChatID: chatID, Text: text}); err != nil {
		return errors.Wrapf(types.ErrDelivery, "%v", err)
	}
	return nil
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	b.registerUser(u.Message)

	log.Debugf("received command: %s", u.Message.Command())

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	text := helpText()

	switch u.Message.Command() {
	case "start":
		b.sendMainMenu(u.Message.Chat.ID)
		return ""
	case "help":
		text = helpText()
	case "rates":
		var err error
		if text, err = commands.CommandRates(ctx, b.rates); err != nil {
			text = translation.Translate("❌ Exchange rates are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "keyrate":
		var err error
		if text, err = commands.CommandKeyRate(ctx, b.rates); err != nil {
			text = translation.Translate("❌ The key rate is unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "metals":
		var err error
		if text, err = commands.CommandMetals(ctx, b.rates); err != nil {
			text = translation.Translate("❌ Metal prices are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "crypto":
		var err error
		if text, err = commands.CommandCrypto(b.prices); err != nil {
			text = translation.Translate("❌ Crypto prices are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "chart":
		return b.handleChartCommand(ctx, u)
	case "ai":
		prompt := strings.TrimSpace(u.Message.CommandArguments())
		if prompt == "" {
			text = "📝 *Usage:* `/ai <question>`"
		} else {
			text = commands.CommandAsk(ctx, b.assistant, prompt)
		}
	case "alert":
		text = b.handleAlertCommand(ctx, u)
	case "myalerts":
		text = b.handleAlertListCommand(ctx, u.Message.Chat.ID)
	case "clearalerts":
		text = b.handleClearAlertsCommand(u.Message.Chat.ID)
	}

	return text
}

// handleChartCommand renders and sends the chart photo itself; a text
// reply is only returned on failure.
func (b *Bot) handleChartCommand(ctx context.Context, u tgbotapi.Update) string {
	args := strings.Fields(u.Message.CommandArguments())
	if len(args) == 0 {
		return "📝 *Usage:* `/chart <currency> [days]`\n\n💡 *Example:* `/chart USD 90`"
	}

	code := strings.ToUpper(args[0])
	days := 0
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			return translation.Translate("❌ The number of days must be a whole number\\.")
		}
		days = parsed
	}

	chartData, caption, err := commands.CommandChart(ctx, b.rates, code, days)
	if err != nil {
		log.Error(err)
		if !rates.IsSupported(code) {
			return b.unsupportedCurrencyMessage(code)
		}
		return translation.Translate("❌ Could not build the chart right now, try again later\\.")
	}

	photo := tgbotapi.NewPhoto(u.Message.Chat.ID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: chartData,
	})
	photo.Caption = caption
	photo.ParseMode = "MarkdownV2"
	photo.ReplyToMessageID = u.Message.MessageID
	if _, err := b.Bot.Send(photo); err != nil {
		log.Error("error sending chart: ", err)
	}
	return ""
}

// handleAlertCommand parses `/alert <from> <to> <threshold> <above|below>`
// and stores the alert.
func (b *Bot) handleAlertCommand(ctx context.Context, u tgbotapi.Update) string {
	args := strings.Fields(u.Message.CommandArguments())
	if len(args) == 1 && strings.EqualFold(args[0], "list") {
		return b.handleAlertListCommand(ctx, u.Message.Chat.ID)
	}
	if len(args) != 4 {
		return commands.AlertUsage(rates.SupportedCurrencies)
	}

	from := strings.ToUpper(args[0])
	to := strings.ToUpper(args[1])

	if !rates.IsSupported(from) {
		return b.unsupportedCurrencyMessage(from)
	}
	if to != b.Config.BaseCurrency {
		return fmt.Sprintf(
			translation.Translate("❌ Alerts are only supported against *%s*\\."),
			helpers.EscapeMarkdownV2(b.Config.BaseCurrency),
		)
	}

	threshold, err := strconv.ParseFloat(args[2], 64)
	if err != nil || threshold <= 0 {
		return translation.Translate("❌ The threshold must be a positive number\\.")
	}

	direction, ok := types.ParseDirection(strings.ToLower(args[3]))
	if !ok {
		return translation.Translate("❌ The direction must be either `above` or `below`\\.")
	}

	id, err := b.db.InsertAlert(u.Message.Chat.ID, from, to, threshold, direction)
	if err != nil {
		log.Errorf("failed to save alert: %v", err)
		if errors.Is(err, types.ErrValidation) {
			return commands.AlertUsage(rates.SupportedCurrencies)
		}
		return translation.Translate("❌ Failed to save the alert, try again later\\.")
	}

	alert := types.Alert{
		ID:           id,
		UserID:       u.Message.Chat.ID,
		FromCurrency: from,
		ToCurrency:   to,
		Threshold:    threshold,
		Direction:    direction,
	}

	var currentRate *float64
	if snapshots, err := b.rates.Snapshots(ctx, []string{from}); err == nil {
		if s, ok := snapshots[from]; ok {
			currentRate = &s.Value
		}
	}

	return commands.AlertCreatedMessage(alert, currentRate)
}

func (b *Bot) handleAlertListCommand(ctx context.Context, chatID int64) string {
	alerts := b.db.AlertsByUser(chatID)

	currentRates := make(map[string]float64)
	if len(alerts) > 0 {
		symbols := make([]string, 0, len(alerts))
		seen := make(map[string]bool)
		for _, a := range alerts {
			if !seen[a.FromCurrency] {
				seen[a.FromCurrency] = true
				symbols = append(symbols, a.FromCurrency)
			}
		}
		if snapshots, err := b.rates.Snapshots(ctx, symbols); err == nil {
			for symbol, s := range snapshots {
				currentRates[symbol] = s.Value
			}
		} else {
			log.Debugf("rates unavailable for alert list: %v", err)
		}
	}

	return commands.AlertListMessage(alerts, currentRates)
}

func (b *Bot) handleClearAlertsCommand(chatID int64) string {
	if err := b.db.ClearAlertsForUser(chatID); err != nil {
		log.Errorf("failed to clear alerts: %v", err)
		return translation.Translate("❌ Failed to clear alerts, try again later\\.")
	}
	return translation.Translate("🗑 *All your alerts have been removed\\.*")
}

// HandleCallbackQuery routes taps on the main menu buttons.
func (b *Bot) HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	data := callbackQuery.Data
	chatID := callbackQuery.Message.Chat.ID

	if _, err := b.Bot.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
		log.Debugf("failed to answer callback: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var text string
	var err error

	switch data {
	case "menu_rates":
		if text, err = commands.CommandRates(ctx, b.rates); err != nil {
			text = translation.Translate("❌ Exchange rates are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "menu_keyrate":
		if text, err = commands.CommandKeyRate(ctx, b.rates); err != nil {
			text = translation.Translate("❌ The key rate is unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "menu_metals":
		if text, err = commands.CommandMetals(ctx, b.rates); err != nil {
			text = translation.Translate("❌ Metal prices are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "menu_crypto":
		if text, err = commands.CommandCrypto(b.prices); err != nil {
			text = translation.Translate("❌ Crypto prices are unavailable right now, try again later\\.")
			log.Error(err)
		}
	case "menu_alerts":
		text = b.handleAlertListCommand(ctx, chatID)
	case "menu_help":
		text = helpText()
	default:
		log.Debugf("unknown callback data: %s", data)
		return
	}

	if err := b.SendMessage(Message{ChatID: chatID, Text: text}); err != nil {
		log.Error(err)
	}
}

func (b *Bot) sendMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"👋 *Welcome\\!*\n\n"+
			"I track official exchange rates, the key interest rate, precious "+
			"metals and crypto prices, and I can alert you when a currency "+
			"crosses a threshold\\.\n\n"+
			"Pick an option below or type /help\\.")
	msg.ParseMode = "MarkdownV2"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💱 Rates", "menu_rates"),
			tgbotapi.NewInlineKeyboardButtonData("₿ Crypto", "menu_crypto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Key rate", "menu_keyrate"),
			tgbotapi.NewInlineKeyboardButtonData("🪙 Metals", "menu_metals"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 My alerts", "menu_alerts"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "menu_help"),
		),
	)

	if _, err := b.Bot.Send(msg); err != nil {
		log.Error("failed to send main menu: ", err)
	}
}

func (b *Bot) registerUser(m *tgbotapi.Message) {
	if m == nil || m.From == nil {
		return
	}
	err := b.db.UpsertUser(types.User{
		UserID:    m.Chat.ID,
		FirstName: m.From.FirstName,
		Username:  m.From.UserName,
	})
	if err != nil {
		log.Errorf("failed to register user %d: %v", m.Chat.ID, err)
	}
}

func (b *Bot) unsupportedCurrencyMessage(code string) string {
	return fmt.Sprintf(
		translation.Translate("❌ Currency *%s* is not supported\\.\n\n💱 *Supported currencies:* %s"),
		helpers.EscapeMarkdownV2(code),
		helpers.EscapeMarkdownV2(strings.Join(rates.SupportedCurrencies, ", ")),
	)
}

func helpText() string {
	return "📖 *Available commands*\n\n" +
		"▫️ /rates current exchange rates with daily change\n" +
		"▫️ /keyrate central bank key interest rate\n" +
		"▫️ /metals precious metal prices\n" +
		"▫️ /crypto top cryptocurrency prices\n" +
		"▫️ `/chart <currency> [days]` rate history chart\n" +
		"▫️ `/alert <from> <to> <threshold> <above|below>` set a rate alert\n" +
		"▫️ /myalerts list your alerts\n" +
		"▫️ /clearalerts remove all your alerts\n" +
		"▫️ `/ai <question>` ask the assistant\n\n" +
		"_Alerts are checked every 30 minutes and fire once\\._"
}
