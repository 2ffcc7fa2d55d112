package adapter

import "context"

// TelegramBotAdapter sends plain messages to a Telegram chat.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
