package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/metrics"
)

// Settlement describes what caused a transition.
type Settlement struct {
	PaymentID    string  // originating attempt; stamped on the entitlement
	GatewayTxnID *string // settlement reference, if the gateway reported one
	Source       string  // "webhook" | "manual" | "api"
}

// TransitionResult reports the order after a transition call.
type TransitionResult struct {
	Order   *model.Order
	Applied bool // false when the order was already terminal
	Granted bool // true when this call created the entitlement
}

// OrderLedger owns order records and their lifecycle.
type OrderLedger interface {
	// CreateOrder validates the declared price against the catalog and returns
	// the pending order for (user, product), creating it if needed.
	CreateOrder(ctx context.Context, userID string, ref model.ProductRef, declaredPrice decimal.Decimal) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	// Transition moves a pending order to a terminal outcome in its own
	// transaction. Terminal orders are left untouched.
	Transition(ctx context.Context, orderID string, outcome model.OrderStatus, s Settlement) (*TransitionResult, error)
	// TransitionTx is Transition bound to a caller-held transaction. The caller
	// must invoke AfterCommit once its transaction commits.
	TransitionTx(ctx context.Context, tx repository.Tx, orderID string, outcome model.OrderStatus, s Settlement) (*TransitionResult, error)
	AfterCommit(ctx context.Context, res *TransitionResult, s Settlement)
}

var _ OrderLedger = (*orderUC)(nil)

type orderUC struct {
	orders          repository.OrderRepository
	catalog         repository.ProductCatalog
	granter         EntitlementGranter
	tm              repository.TransactionManager
	events          adapter.EventPublisher
	defaultCurrency string
	log             *zerolog.Logger
	now             func() time.Time
}

// NewOrderLedger constructs the ledger. events may be nil.
func NewOrderLedger(
	orders repository.OrderRepository,
	catalog repository.ProductCatalog,
	granter EntitlementGranter,
	tm repository.TransactionManager,
	events adapter.EventPublisher,
	defaultCurrency string,
	logger *zerolog.Logger,
) OrderLedger {
	if defaultCurrency == "" {
		defaultCurrency = "INR"
	}
	return &orderUC{
		orders:          orders,
		catalog:         catalog,
		granter:         granter,
		tm:              tm,
		events:          events,
		defaultCurrency: defaultCurrency,
		log:             orNop(logger),
		now:             time.Now,
	}
}

func (u *orderUC) CreateOrder(ctx context.Context, userID string, ref model.ProductRef, declaredPrice decimal.Decimal) (*model.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidArgument)
	}
	if _, err := model.NewProductRef(ref.Kind, ref.ID); err != nil {
		return nil, err
	}
	entry, err := u.catalog.LookupPrice(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !model.AmountsMatch(declaredPrice, entry.Price) {
		return nil, fmt.Errorf("%w: declared %s, current %s",
			domain.ErrPriceMismatch, model.FormatAmount(declaredPrice), model.FormatAmount(entry.Price))
	}

	existing, err := u.orders.FindPendingByUserProduct(ctx, repository.NoTX, userID, ref)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	currency := entry.Currency
	if currency == "" {
		currency = u.defaultCurrency
	}
	o, err := model.NewOrder(userID, ref, entry.Price, currency)
	if err != nil {
		return nil, err
	}
	if err := u.orders.Create(ctx, repository.NoTX, o); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the race against a concurrent request; return the winner.
			return u.orders.FindPendingByUserProduct(ctx, repository.NoTX, userID, ref)
		}
		return nil, err
	}
	metrics.IncOrderCreated(string(ref.Kind))
	logging.With(ctx, u.log).Info().
		Str("order_id", o.ID).
		Str("product", ref.String()).
		Str("price", model.FormatAmount(o.Price)).
		Msg("order created")
	return o, nil
}

func (u *orderUC) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return u.orders.FindByID(ctx, repository.NoTX, id)
}

func (u *orderUC) Transition(ctx context.Context, orderID string, outcome model.OrderStatus, s Settlement) (*TransitionResult, error) {
	var res *TransitionResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		r, err := u.TransitionTx(ctx, tx, orderID, outcome, s)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.AfterCommit(ctx, res, s)
	return res, nil
}

func (u *orderUC) TransitionTx(ctx context.Context, tx repository.Tx, orderID string, outcome model.OrderStatus, s Settlement) (*TransitionResult, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal outcome", domain.ErrInvalidArgument, outcome)
	}
	l := logging.With(ctx, u.log).With().Str("order_id", orderID).Str("outcome", string(outcome)).Logger()

	applied, err := u.orders.TransitionIfPending(ctx, tx, orderID, outcome, s.GatewayTxnID, u.now().UTC())
	if err != nil {
		return nil, err
	}
	o, err := u.orders.FindByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if o.Status != outcome {
			l.Warn().Str("current", string(o.Status)).Str("source", s.Source).Msg("conflicting outcome for terminal order ignored")
		} else {
			l.Debug().Str("source", s.Source).Msg("duplicate transition ignored")
		}
		return &TransitionResult{Order: o}, nil
	}

	res := &TransitionResult{Order: o, Applied: true}
	if outcome == model.OrderStatusSuccessful {
		granted, err := u.granter.Grant(ctx, tx, o.UserID, o.Product, s.PaymentID)
		if err != nil {
			return nil, err
		}
		res.Granted = granted
	}
	l.Info().Str("source", s.Source).Bool("granted", res.Granted).Msg("order transitioned")
	return res, nil
}

type orderSettledEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	ProductKind string    `json:"product_kind"`
	ProductID   string    `json:"product_id"`
	Status      string    `json:"status"`
	PaymentID   string    `json:"payment_id,omitempty"`
	Source      string    `json:"source"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	At          time.Time `json:"at"`
}

// AfterCommit records metrics and publishes the settlement event. Failures
// here are logged only.
func (u *orderUC) AfterCommit(ctx context.Context, res *TransitionResult, s Settlement) {
	if res == nil || res.Order == nil {
		return
	}
	metrics.IncTransition(string(res.Order.Status), res.Applied)
	if !res.Applied {
		return
	}
	if res.Order.Status == model.OrderStatusSuccessful {
		metrics.AddRevenue(res.Order.Currency, res.Order.Price.InexactFloat64())
	}
	if u.events == nil {
		return
	}
	o := res.Order
	payload, err := json.Marshal(orderSettledEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		ProductKind: string(o.Product.Kind),
		ProductID:   o.Product.ID,
		Status:      string(o.Status),
		PaymentID:   s.PaymentID,
		Source:      s.Source,
		Price:       model.FormatAmount(o.Price),
		Currency:    o.Currency,
		At:          u.now().UTC(),
	})
	if err != nil {
		u.log.Error().Err(err).Str("order_id", o.ID).Msg("encode settled event")
		return
	}
	if err := u.events.Publish(ctx, adapter.TopicOrderSettled, o.ID, payload); err != nil {
		u.log.Warn().Err(err).Str("order_id", o.ID).Msg("publish settled event failed")
	}
}
