// Package notify holds the outbound user notification channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"learnpay/internal/domain/ports/adapter"
)

// Renderer expands a named message template.
type Renderer interface {
	Render(key string, data map[string]string) (string, error)
}

// render returns the subject and body for kind.
func render(r Renderer, kind adapter.NotificationKind, data map[string]string) (string, string, error) {
	subject, err := r.Render(string(kind)+".subject", data)
	if err != nil {
		return "", "", err
	}
	body, err := r.Render(string(kind)+".body", data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// ErrNoRecipient is returned by a channel that has no address for the user.
var ErrNoRecipient = errors.New("no recipient for channel")

var _ adapter.Notifier = Multi(nil)

// Multi fans a notification out to every channel. It succeeds when at least
// one channel delivered; otherwise the joined errors are returned.
type Multi []adapter.Notifier

func (m Multi) Send(ctx context.Context, userID string, kind adapter.NotificationKind, data map[string]string) error {
	if len(m) == 0 {
		return nil
	}
	var errs []error
	delivered := 0
	for _, n := range m {
		if err := n.Send(ctx, userID, kind, data); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		return nil
	}
	return fmt.Errorf("notify %s: %w", kind, errors.Join(errs...))
}

var _ adapter.Notifier = Nop{}

// Nop discards notifications.
type Nop struct{}

func (Nop) Send(context.Context, string, adapter.NotificationKind, map[string]string) error {
	return nil
}
