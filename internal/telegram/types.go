package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ratewatch-telegram-bot/internal/ai"
	"ratewatch-telegram-bot/internal/database"
	"ratewatch-telegram-bot/internal/price"
	"ratewatch-telegram-bot/internal/rates"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	BaseCurrency   string
}

// Bot telegram interaction client
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig

	db        *database.DB
	rates     *rates.Client
	prices    *price.Cache
	assistant *ai.Client
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
