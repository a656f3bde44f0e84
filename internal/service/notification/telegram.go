package notification

import (
	"context"
	"fmt"

	"github.com/KNICEX/price-sentinel/internal/service/evaluator"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ Notifier = (*TelegramNotifier)(nil)

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatId int64
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, chatId int64) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatId: chatId,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, event evaluator.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatId, FormatEvent(event))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("could not send telegram message for %s %s: %w", event.Symbol, event.Kind, err)
	}
	return nil
}
