package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/config"
	"ratewatch-telegram-bot/internal/ai"
	"ratewatch-telegram-bot/internal/alert"
	"ratewatch-telegram-bot/internal/database"
	"ratewatch-telegram-bot/internal/digest"
	"ratewatch-telegram-bot/internal/price"
	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/internal/telegram"
)

const cryptoRefreshInterval = 5 * time.Minute

type BotMetrics struct {
	CommandsProcessed     prometheus.Counter
	MessagesHandled       prometheus.Counter
	AlertSweeps           prometheus.Counter
	AlertsFired           prometheus.Counter
	AlertDeliveryFailures prometheus.Counter
}

var metrics = NewBotMetrics()

func init() {
	_ = godotenv.Load()
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratewatch",
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratewatch",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		AlertSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratewatch",
			Subsystem: "telegram_bot",
			Name:      "alert_sweeps",
			Help:      "The total number of alert evaluation sweeps",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratewatch",
			Subsystem: "telegram_bot",
			Name:      "alerts_fired",
			Help:      "The total number of alerts that fired and were delivered",
		}),
		AlertDeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratewatch",
			Subsystem: "telegram_bot",
			Name:      "alert_delivery_failures",
			Help:      "The total number of alert notifications that could not be delivered",
		}),
	}

	prometheus.MustRegister(m.CommandsProcessed)
	prometheus.MustRegister(m.MessagesHandled)
	prometheus.MustRegister(m.AlertSweeps)
	prometheus.MustRegister(m.AlertsFired)
	prometheus.MustRegister(m.AlertDeliveryFailures)

	return m
}

func main() {
	cfg := config.Load()

	gotext.Configure("locales", strings.ToLower(cfg.Lang), "default")

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	loadMetricsFromDB(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ratesClient := rates.NewClient(rates.DefaultBaseURL, cfg.HTTPTimeout)

	priceCache := price.NewCache(coinpaprika.NewClient(nil), cryptoRefreshInterval)
	priceCache.Start(ctx)

	assistant := ai.NewClient(ai.DefaultBaseURL, cfg.DeepSeekAPIKey, cfg.HTTPTimeout)
	if !assistant.Enabled() {
		log.Warn("DEEPSEEK_API_KEY not set, /ai command is disabled")
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          cfg.TelegramBotToken,
		Debug:          cfg.Debug,
		UpdatesTimeout: 60,
		BaseCurrency:   cfg.BaseCurrency,
	}, db, ratesClient, priceCache, assistant)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	evaluator := alert.NewEvaluator(db, ratesClient, bot, alert.Metrics{
		Sweeps:           metrics.AlertSweeps,
		Fired:            metrics.AlertsFired,
		DeliveryFailures: metrics.AlertDeliveryFailures,
	})

	scheduler := cron.New()
	if err := alert.Schedule(scheduler, cfg.AlertCheckSpec, evaluator); err != nil {
		log.Fatalf("Failed to schedule alert sweeps: %v", err)
	}
	if _, err := digest.Schedule(scheduler, cfg.DailyDigestSpec, digest.New(db, ratesClient, bot)); err != nil {
		log.Fatalf("Failed to schedule daily digest: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go handleUpdates(bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetricsToDB(db)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		saveMetricsToDB(db)
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(cfg.MetricsPort); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery != nil {
			bot.HandleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			log.Debug("Received non-message update")
			continue
		}

		if !update.Message.IsCommand() {
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(update)
	if text == "" {
		metrics.CommandsProcessed.Inc()
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetricsFromDB(db *database.DB) {
	for name, counter := range persistedCounters() {
		value, err := db.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Println("Metrics loaded from database.")
}

func saveMetricsToDB(db *database.DB) {
	for name, counter := range persistedCounters() {
		if err := db.SaveMetric(name, getMetricValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Println("Metrics saved to database.")
}

func persistedCounters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"commands_processed":      metrics.CommandsProcessed,
		"messages_handled":        metrics.MessagesHandled,
		"alert_sweeps":            metrics.AlertSweeps,
		"alerts_fired":            metrics.AlertsFired,
		"alert_delivery_failures": metrics.AlertDeliveryFailures,
	}
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
