package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"learnpay/internal/config"
	"learnpay/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// sender is the part of tgbotapi.BotAPI the adapter uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RealTelegramBotAdapter implements adapter.TelegramBotAdapter using tgbotapi.
// It only sends; the service never polls for updates.
type RealTelegramBotAdapter struct {
	bot sender
	log *zerolog.Logger
}

// NewRealTelegramBotAdapter authenticates the bot token and returns the adapter.
func NewRealTelegramBotAdapter(cfg config.TelegramConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")
	return &RealTelegramBotAdapter{bot: bot, log: logger}, nil
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return errors.New("telegram: chat id is zero")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
