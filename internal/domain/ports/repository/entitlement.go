package repository

import (
	"context"

	"learnpay/internal/domain/model"
)

// -----------------------------
// Entitlements
// -----------------------------

// Enroller grants access to one product kind. Implementations must rely on a
// storage-enforced uniqueness constraint on (user, product): Enroll reports
// created=false, with no error, when the entitlement already exists.
type Enroller interface {
	Kind() model.ProductKind
	Enroll(ctx context.Context, tx Tx, e *model.Entitlement) (created bool, err error)
	Find(ctx context.Context, tx Tx, userID, productID string) (*model.Entitlement, error)
}
