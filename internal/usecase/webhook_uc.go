package usecase

import (
	"context"
	"errors"
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

// Webhook result reasons, also used as the metrics result label.
const (
	ReasonApplied            = "applied"
	ReasonDuplicate          = "duplicate"
	ReasonPending            = "pending"
	ReasonSignatureInvalid   = "signature_invalid"
	ReasonMalformed          = "malformed"
	ReasonUnknownOrder       = "unknown_order"
	ReasonGatewayUnavailable = "gateway_unavailable"
	ReasonAmountMismatch     = "amount_mismatch"
	ReasonRejected           = "rejected"
	ReasonStorageFailure     = "storage_failure"
)

// WebhookResult is the internal outcome of one callback. The transport
// acknowledges every result; Reason goes to logs and metrics only.
type WebhookResult struct {
	Acknowledged bool
	Reason       string
	Gateway      string // configured gateway name; empty until resolved
	OrderID      string
	PaymentID    string
	Outcome      model.OutcomeClass
	Applied      bool
	Granted      bool
}

type WebhookUseCase interface {
	// Process runs one callback through authenticate, decode, resolve, guard,
	// classify and apply. Only storage faults are returned as errors.
	Process(ctx context.Context, gatewayName string, body []byte, signature string) (*WebhookResult, error)
	// Wait blocks until the notifications started by Process have finished.
	Wait()
}

var _ WebhookUseCase = (*webhookUC)(nil)

type webhookUC struct {
	gateways *GatewayDirectory
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	ledger   OrderLedger
	tm       repository.TransactionManager
	notifier *backgroundSender
	log      *zerolog.Logger
}

func NewWebhookUseCase(
	gateways *GatewayDirectory,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	ledger OrderLedger,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) WebhookUseCase {
	return &webhookUC{
		gateways: gateways,
		orders:   orders,
		payments: payments,
		ledger:   ledger,
		tm:       tm,
		notifier: newBackgroundSender(notifier, notifyTimeout),
		log:      orNop(logger),
	}
}

func (u *webhookUC) Process(ctx context.Context, gatewayName string, body []byte, signature string) (*WebhookResult, error) {
	start := time.Now()
	res := &WebhookResult{Acknowledged: true}
	l := logging.With(ctx, u.log).With().Str("gateway", gatewayName).Logger()

	// the URL segment is caller controlled; only resolved names become labels
	defer func() { metrics.ObserveWebhook(res.Gateway, res.Reason, time.Since(start)) }()

	err := u.process(ctx, &l, gatewayName, body, signature, res)

	if err != nil {
		if domain.IsStorageFailure(err) {
			res.Acknowledged = false
			res.Reason = ReasonStorageFailure
			l.Error().Err(err).Str("order_id", res.OrderID).Msg("webhook storage failure")
			return res, err
		}
		l.Warn().Err(err).
			Str("reason", res.Reason).
			Str("order_id", res.OrderID).
			Str("payment_id", res.PaymentID).
			Msg("webhook not applied")
		return res, nil
	}
	l.Info().
		Str("reason", res.Reason).
		Str("order_id", res.OrderID).
		Str("outcome", string(res.Outcome)).
		Bool("granted", res.Granted).
		Msg("webhook processed")
	return res, nil
}

func (u *webhookUC) Wait() { u.notifier.wait() }

func (u *webhookUC) process(ctx context.Context, l *zerolog.Logger, gatewayName string, body []byte, signature string, res *WebhookResult) error {
	cfg, gw, err := u.gateways.Resolve(ctx, gatewayName)
	if err != nil {
		res.Reason = ReasonGatewayUnavailable
		return err
	}
	res.Gateway = cfg.Name

	// 1. authenticate before anything is decoded
	if err := gw.VerifySignature(cfg, body, signature); err != nil {
		res.Reason = ReasonSignatureInvalid
		return err
	}

	// 2. decode
	out, err := gw.DecodeCallback(body)
	if err != nil {
		res.Reason = ReasonMalformed
		return err
	}

	// 3. resolve
	p, err := u.payments.FindByTransactionRef(ctx, repository.NoTX, gatewayName, out.MerchantTxnRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			res.Reason = ReasonUnknownOrder
		}
		return err
	}
	res.PaymentID = p.ID
	order, err := u.orders.FindByID(ctx, repository.NoTX, p.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			res.Reason = ReasonUnknownOrder
		}
		return err
	}
	res.OrderID = order.ID

	// 4. idempotency guard
	if order.Status.Terminal() {
		res.Reason = ReasonDuplicate
		l.Debug().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("callback for terminal order")
		return nil
	}

	// 5. classify
	res.Outcome = gw.Classify(out)
	obs := repository.Observation{
		GatewayRef: strOrNil(out.GatewayTxnRef),
		Code:       strOrNil(out.Code),
		Message:    strOrNil(out.Message),
	}
	if res.Outcome == model.OutcomeSuccessful && out.Amount != nil && !model.AmountsMatch(*out.Amount, p.Amount) {
		res.Reason = ReasonAmountMismatch
		if err := u.payments.Observe(ctx, repository.NoTX, p.ID, obs); err != nil {
			return err
		}
		l.Error().
			Str("order_id", order.ID).
			Str("transaction_ref", p.TransactionRef).
			Str("reported", model.FormatAmount(*out.Amount)).
			Str("expected", model.FormatAmount(p.Amount)).
			Msg("callback amount does not match attempt")
		return nil
	}
	target, terminal := res.Outcome.OrderStatus()
	if !terminal {
		res.Reason = ReasonPending
		return u.payments.Observe(ctx, repository.NoTX, p.ID, obs)
	}
	payStatus, _ := model.PaymentStatusFor(target)

	// 6. apply
	settlement := Settlement{PaymentID: p.ID, GatewayTxnID: obs.GatewayRef, Source: "webhook"}
	var tr *TransitionResult
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, payStatus, obs)
		if err != nil {
			return err
		}
		if !moved {
			// an operator resolved this attempt first
			tr = &TransitionResult{Order: order}
			return nil
		}
		r, err := u.ledger.TransitionTx(ctx, tx, order.ID, target, settlement)
		if err != nil {
			return err
		}
		tr = r
		return nil
	})
	if err != nil {
		res.Reason = ReasonRejected
		return err
	}
	u.ledger.AfterCommit(ctx, tr, settlement)

	res.Applied = tr.Applied
	res.Granted = tr.Granted
	if !tr.Applied {
		res.Reason = ReasonDuplicate
		return nil
	}
	res.Reason = ReasonApplied
	// delivered after the acknowledgment; a slow channel must not delay it
	if target == model.OrderStatusSuccessful {
		u.notifier.send(ctx, l, order.UserID, adapter.NotifyPurchaseConfirmed, map[string]string{
			"order_id":     order.ID,
			"product_kind": string(order.Product.Kind),
			"product_id":   order.Product.ID,
			"amount":       model.FormatAmount(order.Price),
			"currency":     order.Currency,
		})
	}
	return nil
}
