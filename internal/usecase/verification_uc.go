package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/metrics"
)

// VerifyInput is an operator decision on one pending attempt.
type VerifyInput struct {
	PaymentID  string
	OperatorID string
	Outcome    model.OrderStatus // successful | failed
	Notes      *string
	GatewayRef *string
}

// VerificationResult reports the state after a manual resolution.
type VerificationResult struct {
	Payment      *model.Payment
	OrderStatus  model.OrderStatus
	OrderChanged bool
	Granted      bool
}

type VerificationUseCase interface {
	Verify(ctx context.Context, in VerifyInput) (*VerificationResult, error)
	// PendingQueue lists attempts still pending after olderThan, oldest first.
	// These are the candidates for manual verification.
	PendingQueue(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error)
}

var _ VerificationUseCase = (*verificationUC)(nil)

type verificationUC struct {
	payments repository.PaymentRepository
	ledger   OrderLedger
	tm       repository.TransactionManager
	notifier adapter.Notifier
	log      *zerolog.Logger
	now      func() time.Time
}

func NewVerificationUseCase(
	payments repository.PaymentRepository,
	ledger OrderLedger,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) VerificationUseCase {
	return &verificationUC{
		payments: payments,
		ledger:   ledger,
		tm:       tm,
		notifier: notifier,
		log:      orNop(logger),
		now:      time.Now,
	}
}

func (u *verificationUC) Verify(ctx context.Context, in VerifyInput) (*VerificationResult, error) {
	payStatus, ok := model.PaymentStatusFor(in.Outcome)
	if !ok {
		return nil, fmt.Errorf("%w: outcome must be successful or failed, got %q", domain.ErrInvalidArgument, in.Outcome)
	}
	if strings.TrimSpace(in.PaymentID) == "" || strings.TrimSpace(in.OperatorID) == "" {
		return nil, fmt.Errorf("%w: payment id and operator id required", domain.ErrInvalidArgument)
	}

	settlement := Settlement{PaymentID: in.PaymentID, GatewayTxnID: in.GatewayRef, Source: "manual"}
	var (
		tr      *TransitionResult
		payment *model.Payment
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		if !p.IsPending() {
			return fmt.Errorf("%w: payment %s is %s", domain.ErrAlreadyResolved, p.ID, p.Status)
		}
		stamped, err := u.payments.ResolveIfPending(ctx, tx, p.ID, repository.Resolution{
			Status:     payStatus,
			OperatorID: in.OperatorID,
			Notes:      in.Notes,
			GatewayRef: in.GatewayRef,
			At:         u.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !stamped {
			return fmt.Errorf("%w: payment %s resolved concurrently", domain.ErrAlreadyResolved, p.ID)
		}
		r, err := u.ledger.TransitionTx(ctx, tx, p.OrderID, in.Outcome, settlement)
		if err != nil {
			return err
		}
		tr = r
		payment, err = u.payments.FindByID(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.ledger.AfterCommit(ctx, tr, settlement)
	metrics.IncManualVerification(string(payStatus))

	l := logging.With(ctx, u.log)
	l.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Str("operator_id", in.OperatorID).
		Str("outcome", string(in.Outcome)).
		Bool("order_changed", tr.Applied).
		Msg("payment verified manually")

	kind := adapter.NotifyPaymentRejected
	if in.Outcome == model.OrderStatusSuccessful {
		kind = adapter.NotifyPaymentApproved
	}
	data := map[string]string{
		"order_id":   payment.OrderID,
		"payment_id": payment.ID,
		"amount":     model.FormatAmount(payment.Amount),
		"currency":   payment.Currency,
	}
	if in.Notes != nil {
		data["notes"] = *in.Notes
	}
	sendBestEffort(ctx, u.notifier, l, payment.UserID, kind, data)

	return &VerificationResult{
		Payment:      payment,
		OrderStatus:  tr.Order.Status,
		OrderChanged: tr.Applied,
		Granted:      tr.Granted,
	}, nil
}

const maxQueueLimit = 500

func (u *verificationUC) PendingQueue(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error) {
	if olderThan < 0 {
		return nil, fmt.Errorf("%w: negative age", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > maxQueueLimit {
		limit = maxQueueLimit
	}
	return u.payments.ListPendingOlderThan(ctx, repository.NoTX, u.now().UTC().Add(-olderThan), limit)
}
