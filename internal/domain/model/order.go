package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusSuccessful OrderStatus = "successful"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Terminal states are sticky: no transition leaves them.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusSuccessful, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is one purchase intent for one product at a fixed price.
// Price and Product are written once, at creation.
type Order struct {
	ID             string
	UserID         string
	Product        ProductRef
	Price          decimal.Decimal
	Currency       string
	Status         OrderStatus
	GatewayName    *string
	TransactionRef *string // reference of the most recent attempt
	GatewayTxnID   *string // settlement reference reported by the gateway
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SettledAt      *time.Time
}

// NewOrder validates and constructs a pending order at the confirmed catalog price.
func NewOrder(userID string, product ProductRef, price decimal.Decimal, currency string) (*Order, error) {
	if userID == "" || product.IsZero() || !product.Kind.Valid() {
		return nil, fmt.Errorf("%w: order requires user and product", domain.ErrInvalidArgument)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: negative price", domain.ErrInvalidArgument)
	}
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Product:   product,
		Price:     price.Round(2),
		Currency:  currency,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Order) IsZero() bool { return o == nil || o.ID == "" }

func (o *Order) IsPending() bool { return o != nil && o.Status == OrderStatusPending }
