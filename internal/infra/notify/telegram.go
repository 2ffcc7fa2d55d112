package notify

import (
	"context"
	"fmt"

	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier messages the user's linked chat. Users without a linked
// chat are routed to the operator chat, when one is configured.
type TelegramNotifier struct {
	bot          adapter.TelegramBotAdapter
	contacts     repository.UserContactRepository
	tpl          Renderer
	operatorChat int64
}

func NewTelegramNotifier(bot adapter.TelegramBotAdapter, contacts repository.UserContactRepository, tpl Renderer, operatorChat int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, contacts: contacts, tpl: tpl, operatorChat: operatorChat}
}

func (t *TelegramNotifier) Send(ctx context.Context, userID string, kind adapter.NotificationKind, data map[string]string) error {
	u, err := t.contacts.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return fmt.Errorf("telegram: contact %s: %w", userID, err)
	}
	subject, body, err := render(t.tpl, kind, data)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	text := subject + "\n\n" + body

	chat := u.TelegramChatID
	if chat == 0 {
		if t.operatorChat == 0 {
			return fmt.Errorf("telegram: user %s: %w", userID, ErrNoRecipient)
		}
		chat = t.operatorChat
		text = fmt.Sprintf("[user %s] %s", userID, text)
	}
	return t.bot.SendMessage(ctx, chat, text)
}
