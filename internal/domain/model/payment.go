package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // instrument issued; awaiting gateway or operator
	PaymentStatusSuccessful PaymentStatus = "successful" // confirmed by webhook or operator
	PaymentStatusFailed     PaymentStatus = "failed"     // rejected by gateway or operator
)

// TransactionRefPrefix keeps references recognisable in gateway dashboards.
const TransactionRefPrefix = "TX"

// Payment is one gateway-facing attempt to collect funds for an order.
type Payment struct {
	ID             string
	OrderID        string
	UserID         string
	Amount         decimal.Decimal
	Currency       string
	Gateway        string
	TransactionRef string  // merchant-side reference, unique per attempt
	GatewayRef     *string // gateway-side transaction id, once known
	Status         PaymentStatus
	LastCode       *string // last outcome code seen from the gateway
	LastMessage    *string
	VerifiedBy     *string // operator id for manual resolutions
	VerifiedAt     *time.Time
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewTransactionRef returns a time-ordered, lexically sortable reference
// with an 80-bit random suffix.
func NewTransactionRef() string {
	return TransactionRefPrefix + ulid.Make().String()
}

// NewPaymentAttempt creates a pending attempt for order. The amount must match
// the order price within PriceTolerance.
func NewPaymentAttempt(order *Order, amount decimal.Decimal, gateway, currency string) (*Payment, error) {
	if order.IsZero() || gateway == "" {
		return nil, fmt.Errorf("%w: attempt requires order and gateway", domain.ErrInvalidArgument)
	}
	if !AmountsMatch(amount, order.Price) {
		return nil, fmt.Errorf("%w: attempt amount %s, order price %s",
			domain.ErrPriceMismatch, FormatAmount(amount), FormatAmount(order.Price))
	}
	if currency == "" {
		currency = order.Currency
	}
	now := time.Now().UTC()
	return &Payment{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		UserID:         order.UserID,
		Amount:         amount.Round(2),
		Currency:       currency,
		Gateway:        gateway,
		TransactionRef: NewTransactionRef(),
		Status:         PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (p *Payment) IsZero() bool { return p == nil || p.ID == "" }

func (p *Payment) IsPending() bool { return p != nil && p.Status == PaymentStatusPending }

// PaymentStatusFor maps a terminal order outcome to the attempt status that produced it.
func PaymentStatusFor(outcome OrderStatus) (PaymentStatus, bool) {
	switch outcome {
	case OrderStatusSuccessful:
		return PaymentStatusSuccessful, true
	case OrderStatusFailed:
		return PaymentStatusFailed, true
	}
	return "", false
}
