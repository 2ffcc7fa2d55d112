package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"learnpay/internal/config"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var _ adapter.Notifier = (*EmailNotifier)(nil)

// EmailNotifier sends plain-text mail to the user's contact address.
type EmailNotifier struct {
	contacts repository.UserContactRepository
	tpl      Renderer
	from     string
	dialer   dialer
	log      *zerolog.Logger
}

func NewEmailNotifier(cfg config.SMTPConfig, contacts repository.UserContactRepository, tpl Renderer, logger *zerolog.Logger) *EmailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newEmailNotifier(d, cfg.From, contacts, tpl, logger)
}

func newEmailNotifier(d dialer, from string, contacts repository.UserContactRepository, tpl Renderer, logger *zerolog.Logger) *EmailNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EmailNotifier{contacts: contacts, tpl: tpl, from: from, dialer: d, log: logger}
}

func (e *EmailNotifier) Send(ctx context.Context, userID string, kind adapter.NotificationKind, data map[string]string) error {
	u, err := e.contacts.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return fmt.Errorf("email: contact %s: %w", userID, err)
	}
	if u.Email == "" {
		return fmt.Errorf("email: user %s: %w", userID, ErrNoRecipient)
	}
	subject, body, err := render(e.tpl, kind, data)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	if u.Name != "" {
		m.SetAddressHeader("To", u.Email, u.Name)
	} else {
		m.SetHeader("To", u.Email)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("email: send %s: %w", kind, err)
	}
	e.log.Debug().Str("user_id", userID).Str("kind", string(kind)).Msg("email sent")
	return nil
}
