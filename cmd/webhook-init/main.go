// Command webhook-init registers the bot's webhook with Telegram. Run it
// once after deploying, or again whenever the public URL changes.
package main

import (
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"gastos/internal/config"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.TelegramWebhookURL == "" {
		logger.Error("TELEGRAM_WEBHOOK_URL is required")
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram client", "error", err)
		os.Exit(1)
	}

	params := tgbotapi.Params{
		"url":                  cfg.TelegramWebhookURL,
		"drop_pending_updates": "true",
	}
	if cfg.TelegramWebhookSecret != "" {
		params["secret_token"] = cfg.TelegramWebhookSecret
	}

	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		logger.Error("setWebhook failed", "error", err)
		os.Exit(1)
	}
	if !resp.Ok {
		logger.Error("setWebhook rejected", "description", resp.Description)
		os.Exit(1)
	}

	info, err := api.GetWebhookInfo()
	if err != nil {
		logger.Error("getWebhookInfo failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Webhook registered",
		"url", info.URL,
		"pending_updates", info.PendingUpdateCount,
		"has_secret", cfg.TelegramWebhookSecret != "")
	if info.LastErrorMessage != "" {
		logger.Warn("Telegram reported a previous delivery error",
			"error", info.LastErrorMessage)
	}
}
