package repository

import (
	"context"
	"time"

	"learnpay/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

// OrderRepository persists orders. Price and product are only ever written by
// Create; every other method touches status and gateway fields only, and only
// while the order is pending.
type OrderRepository interface {
	// Create inserts a new order. A second pending order for the same
	// (user, product) is rejected by storage with domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindPendingByUserProduct(ctx context.Context, tx Tx, userID string, ref model.ProductRef) (*model.Order, error)
	// TransitionIfPending atomically moves a pending order to status. It reports
	// false when the order was not pending (or does not exist).
	TransitionIfPending(ctx context.Context, tx Tx, id string, status model.OrderStatus, gatewayTxnID *string, at time.Time) (bool, error)
	// AttachGateway records the gateway and attempt reference on a pending order.
	AttachGateway(ctx context.Context, tx Tx, id, gateway, transactionRef string) error
}
