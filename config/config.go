package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var once sync.Once

// Config is built once at startup and handed to every component explicitly.
type Config struct {
	TelegramBotToken string
	DeepSeekAPIKey   string
	DatabasePath     string
	MetricsPort      int
	Debug            bool
	Lang             string
	BaseCurrency     string
	AlertCheckSpec   string
	DailyDigestSpec  string
	HTTPTimeout      time.Duration
}

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("deepseek_api_key", "DEEPSEEK_API_KEY")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "BOT_LANG")
		viper.BindEnv("base_currency", "BASE_CURRENCY")
		viper.BindEnv("alert_check_spec", "ALERT_CHECK_SPEC")
		viper.BindEnv("daily_digest_spec", "DAILY_DIGEST_SPEC")
		viper.BindEnv("http_timeout_seconds", "HTTP_TIMEOUT_SECONDS")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("base_currency", "RUB")
		// alerts every 30 minutes, digest at 07:00 UTC (10:00 MSK)
		viper.SetDefault("alert_check_spec", "*/30 * * * *")
		viper.SetDefault("daily_digest_spec", "0 7 * * *")
		viper.SetDefault("http_timeout_seconds", 15)
	})
}

// Load binds the environment and returns the resolved configuration.
func Load() Config {
	InitConfig()
	return Config{
		TelegramBotToken: viper.GetString("telegram_bot_token"),
		DeepSeekAPIKey:   viper.GetString("deepseek_api_key"),
		DatabasePath:     viper.GetString("db_path"),
		MetricsPort:      viper.GetInt("metrics_port"),
		Debug:            viper.GetBool("debug"),
		Lang:             viper.GetString("lang"),
		BaseCurrency:     viper.GetString("base_currency"),
		AlertCheckSpec:   viper.GetString("alert_check_spec"),
		DailyDigestSpec:  viper.GetString("daily_digest_spec"),
		HTTPTimeout:      time.Duration(viper.GetInt("http_timeout_seconds")) * time.Second,
	}
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
