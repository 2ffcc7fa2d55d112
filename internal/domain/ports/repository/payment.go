package repository

import (
	"context"
	"time"

	"learnpay/internal/domain/model"
)

// -----------------------------
// Payment attempts
// -----------------------------

// Observation carries the non-terminal fields a gateway callback may update.
type Observation struct {
	GatewayRef *string
	Code       *string
	Message    *string
}

// Resolution is the operator stamp for a manual verification.
type Resolution struct {
	Status     model.PaymentStatus
	OperatorID string
	Notes      *string
	GatewayRef *string
	At         time.Time
}

type PaymentRepository interface {
	// Create inserts a pending attempt. A second pending attempt for the same
	// order is rejected by storage with domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByTransactionRef(ctx context.Context, tx Tx, gateway, ref string) (*model.Payment, error)
	FindPendingByOrder(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	// UpdateStatusIfPending atomically resolves a pending attempt from a gateway
	// callback. It reports false when the attempt was no longer pending.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, obs Observation) (bool, error)
	// ResolveIfPending atomically stamps a manual resolution.
	ResolveIfPending(ctx context.Context, tx Tx, id string, res Resolution) (bool, error)
	// Observe records observational fields without changing status.
	Observe(ctx context.Context, tx Tx, id string, obs Observation) error
	// ListPendingOlderThan returns pending attempts created before cutoff,
	// oldest first.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}
