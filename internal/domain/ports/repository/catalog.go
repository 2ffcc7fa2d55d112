package repository

import (
	"context"

	"learnpay/internal/domain/model"
)

// -----------------------------
// Read-only collaborators
// -----------------------------

type ProductCatalog interface {
	// LookupPrice returns the current listing, or domain.ErrNotFound.
	LookupPrice(ctx context.Context, ref model.ProductRef) (*model.CatalogEntry, error)
}

type GatewayConfigRepository interface {
	FindByName(ctx context.Context, tx Tx, name string) (*model.GatewayConfig, error)
	Save(ctx context.Context, tx Tx, c *model.GatewayConfig) error
}

type UserContactRepository interface {
	FindByID(ctx context.Context, tx Tx, userID string) (*model.UserContact, error)
}
