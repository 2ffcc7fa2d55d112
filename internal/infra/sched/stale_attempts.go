package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"learnpay/internal/infra/metrics"
	"learnpay/internal/usecase"
)

// scanLimit bounds one scan; the gauge saturates at this value.
const scanLimit = 200

// StaleAttemptMonitor periodically reports attempts that are still pending
// long after initiation. Those usually mean a lost callback and need an
// operator to verify them by hand. It never changes any state.
type StaleAttemptMonitor struct {
	queue      usecase.VerificationUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending attempt must be to report
	log        *zerolog.Logger
}

func NewStaleAttemptMonitor(queue usecase.VerificationUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *StaleAttemptMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("worker", "stale-attempts").Logger()
	return &StaleAttemptMonitor{queue: queue, interval: interval, staleAfter: staleAfter, log: &l}
}

// Start blocks until ctx is cancelled.
func (w *StaleAttemptMonitor) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopped")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *StaleAttemptMonitor) tick(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pending, err := w.queue.PendingQueue(runCtx, w.staleAfter, scanLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale attempts")
		return 0
	}
	metrics.SetStalePending(len(pending))
	for _, p := range pending {
		w.log.Warn().
			Str("payment_id", p.ID).
			Str("order_id", p.OrderID).
			Str("gateway", p.Gateway).
			Str("transaction_ref", p.TransactionRef).
			Time("created_at", p.CreatedAt).
			Msg("attempt awaiting verification")
	}
	return len(pending)
}
