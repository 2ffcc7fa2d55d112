package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/infra/metrics"
)

// sendBestEffort delivers a notification and only logs on failure.
func sendBestEffort(ctx context.Context, n adapter.Notifier, log *zerolog.Logger, userID string, kind adapter.NotificationKind, data map[string]string) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, userID, kind, data); err != nil {
		metrics.IncNotification(string(kind), "failed")
		log.Warn().Err(err).Str("user_id", userID).Str("kind", string(kind)).Msg("notification failed")
		return
	}
	metrics.IncNotification(string(kind), "sent")
}

// notifyTimeout bounds one background delivery.
const notifyTimeout = 30 * time.Second

// backgroundSender delivers best-effort notifications off the caller's
// goroutine. Deliveries outlive the caller's context but not timeout.
type backgroundSender struct {
	n       adapter.Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func newBackgroundSender(n adapter.Notifier, timeout time.Duration) *backgroundSender {
	return &backgroundSender{n: n, timeout: timeout}
}

func (b *backgroundSender) send(ctx context.Context, log *zerolog.Logger, userID string, kind adapter.NotificationKind, data map[string]string) {
	if b.n == nil {
		return
	}
	l := *log
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		sendBestEffort(sendCtx, b.n, &l, userID, kind, data)
	}()
}

func (b *backgroundSender) wait() { b.wg.Wait() }
