package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/metrics"
)

// EntitlementGranter ensures a user holds access to a purchased product.
type EntitlementGranter interface {
	// Grant creates the entitlement unless it already exists. It reports
	// granted=false (and no error) for an existing entitlement.
	Grant(ctx context.Context, tx repository.Tx, userID string, ref model.ProductRef, paymentID string) (granted bool, err error)
	Has(ctx context.Context, userID string, ref model.ProductRef) (bool, error)
}

var _ EntitlementGranter = (*entitlementUC)(nil)

type entitlementUC struct {
	enrollers map[model.ProductKind]repository.Enroller
	log       *zerolog.Logger
	now       func() time.Time
}

// NewEntitlementGranter builds the dispatch table. Every product kind must be
// covered exactly once.
func NewEntitlementGranter(logger *zerolog.Logger, enrollers ...repository.Enroller) (EntitlementGranter, error) {
	table := make(map[model.ProductKind]repository.Enroller, len(enrollers))
	for _, e := range enrollers {
		if _, dup := table[e.Kind()]; dup {
			return nil, fmt.Errorf("%w: duplicate enroller for %s", domain.ErrInvalidArgument, e.Kind())
		}
		table[e.Kind()] = e
	}
	for _, k := range model.ProductKinds {
		if _, ok := table[k]; !ok {
			return nil, fmt.Errorf("%w: no enroller for %s", domain.ErrInvalidArgument, k)
		}
	}
	return &entitlementUC{enrollers: table, log: orNop(logger), now: time.Now}, nil
}

func (u *entitlementUC) enroller(ref model.ProductRef) (repository.Enroller, error) {
	e, ok := u.enrollers[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: product kind %q", domain.ErrInvalidArgument, ref.Kind)
	}
	return e, nil
}

func (u *entitlementUC) Grant(ctx context.Context, tx repository.Tx, userID string, ref model.ProductRef, paymentID string) (bool, error) {
	e, err := u.enroller(ref)
	if err != nil {
		return false, err
	}
	ent := &model.Entitlement{
		UserID:    userID,
		Product:   ref,
		PaymentID: paymentID,
		GrantedAt: u.now().UTC(),
	}
	created, err := e.Enroll(ctx, tx, ent)
	if err != nil {
		metrics.IncEntitlement(string(ref.Kind), "error")
		return false, err
	}
	if !created {
		metrics.IncEntitlement(string(ref.Kind), "existing")
		u.log.Debug().Str("user_id", userID).Str("product", ref.String()).Msg("entitlement already present")
		return false, nil
	}
	metrics.IncEntitlement(string(ref.Kind), "granted")
	u.log.Info().
		Str("user_id", userID).
		Str("product", ref.String()).
		Str("payment_id", paymentID).
		Msg("entitlement granted")
	return true, nil
}

func (u *entitlementUC) Has(ctx context.Context, userID string, ref model.ProductRef) (bool, error) {
	e, err := u.enroller(ref)
	if err != nil {
		return false, err
	}
	got, err := e.Find(ctx, repository.NoTX, userID, ref.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return got != nil, nil
}
