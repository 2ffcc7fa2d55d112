// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Initiate creates (or reuses) the pending attempt for an order and returns
	// its payment instrument.
	Initiate(ctx context.Context, orderID, gatewayName string) (*model.PaymentInstrument, error)
	// RenderInstrument re-renders the instrument of a pending attempt.
	RenderInstrument(ctx context.Context, paymentID string) (*model.PaymentInstrument, error)
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
}

type paymentUC struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateways *GatewayDirectory
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gateways *GatewayDirectory,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) PaymentUseCase {
	return &paymentUC{orders: orders, payments: payments, gateways: gateways, tm: tm, log: orNop(logger)}
}

func (u *paymentUC) Initiate(ctx context.Context, orderID, gatewayName string) (*model.PaymentInstrument, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPending() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, order.ID, order.Status)
	}
	cfg, gw, err := u.gateways.Resolve(ctx, gatewayName)
	if err != nil {
		return nil, err
	}
	if cfg.Currency != order.Currency {
		return nil, fmt.Errorf("%w: %s settles %s, order is %s", domain.ErrGatewayUnavailable, gatewayName, cfg.Currency, order.Currency)
	}

	var (
		attempt *model.Payment
		reused  bool
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		// FindByID locks the order row inside a tx, serialising initiations.
		o, err := u.orders.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !o.IsPending() {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, o.ID, o.Status)
		}
		existing, err := u.payments.FindPendingByOrder(ctx, tx, o.ID)
		switch {
		case err == nil:
			if existing.Gateway != gatewayName {
				return fmt.Errorf("%w: order %s has a pending attempt on %s", domain.ErrInvalidState, o.ID, existing.Gateway)
			}
			attempt, reused = existing, true
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		p, err := model.NewPaymentAttempt(o, o.Price, gatewayName, o.Currency)
		if err != nil {
			return err
		}
		if err := u.payments.Create(ctx, tx, p); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("%w: order %s already has a pending attempt", domain.ErrInvalidState, o.ID)
			}
			return err
		}
		if err := u.orders.AttachGateway(ctx, tx, o.ID, gatewayName, p.TransactionRef); err != nil {
			return err
		}
		attempt = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	l := logging.With(ctx, u.log).With().
		Str("order_id", attempt.OrderID).
		Str("payment_id", attempt.ID).
		Str("gateway", gatewayName).
		Logger()
	if reused {
		l.Debug().Msg("reusing pending payment attempt")
	} else {
		metrics.IncPaymentInitiated(gatewayName)
		l.Info().Str("transaction_ref", attempt.TransactionRef).Msg("payment attempt created")
	}

	// The attempt is committed; a rendering failure leaves it pending and
	// RenderInstrument can be retried.
	inst, err := gw.BuildInstrument(cfg, attempt)
	if err != nil {
		l.Error().Err(err).Msg("instrument rendering failed")
		return nil, wrapInstrumentErr(err)
	}
	return inst, nil
}

func (u *paymentUC) RenderInstrument(ctx context.Context, paymentID string) (*model.PaymentInstrument, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.IsPending() {
		return nil, fmt.Errorf("%w: payment %s is %s", domain.ErrInvalidState, p.ID, p.Status)
	}
	cfg, gw, err := u.gateways.Resolve(ctx, p.Gateway)
	if err != nil {
		return nil, err
	}
	inst, err := gw.BuildInstrument(cfg, p)
	if err != nil {
		return nil, wrapInstrumentErr(err)
	}
	return inst, nil
}

func (u *paymentUC) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, repository.NoTX, id)
}

func wrapInstrumentErr(err error) error {
	if errors.Is(err, domain.ErrInstrumentGenerationFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInstrumentGenerationFailed, err)
}
