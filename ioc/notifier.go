package ioc

import (
	"github.com/KNICEX/price-sentinel/internal/service/notification"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
)

// InitNotifier builds the telegram notifier, falling back to stdout
// when no token is configured.
func InitNotifier() notification.Notifier {
	type Config struct {
		Token  string `mapstructure:"token"`
		ChatId int64  `mapstructure:"chat_id"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("telegram", &cfg); err != nil {
		panic(err)
	}
	if cfg.Token == "" {
		return notification.NewConsoleNotifier()
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, newHTTPClient())
	if err != nil {
		panic(err)
	}
	return notification.NewTelegramNotifier(bot, cfg.ChatId)
}
