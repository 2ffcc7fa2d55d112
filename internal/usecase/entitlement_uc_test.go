//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/usecase"
)

func TestEntitlementGranter(t *testing.T) {
	ctx := context.Background()

	t.Run("should dispatch by product kind and stay idempotent", func(t *testing.T) {
		byKind, list := enrollerSet()
		g, err := usecase.NewEntitlementGranter(newTestLogger(), list...)
		if err != nil {
			t.Fatalf("NewEntitlementGranter: %v", err)
		}
		ref := model.ProductRef{Kind: model.ProductWebinar, ID: "web-ai-careers"}

		granted, err := g.Grant(ctx, repository.NoTX, "u1", ref, "p1")
		if err != nil || !granted {
			t.Fatalf("first grant: %v, %v", granted, err)
		}
		granted, err = g.Grant(ctx, repository.NoTX, "u1", ref, "p2")
		if err != nil || granted {
			t.Fatalf("second grant should report existing: %v, %v", granted, err)
		}
		if byKind[model.ProductWebinar].count() != 1 || byKind[model.ProductCourse].count() != 0 {
			t.Error("grant went to the wrong enroller")
		}
		e, _ := byKind[model.ProductWebinar].Find(ctx, nil, "u1", "web-ai-careers")
		if e.PaymentID != "p1" || e.GrantedAt.IsZero() {
			t.Errorf("first grant must be kept: %+v", e)
		}

		has, err := g.Has(ctx, "u1", ref)
		if err != nil || !has {
			t.Errorf("Has = %v, %v", has, err)
		}
		has, err = g.Has(ctx, "u2", ref)
		if err != nil || has {
			t.Errorf("Has for other user = %v, %v", has, err)
		}
	})

	t.Run("should require one enroller per kind", func(t *testing.T) {
		_, list := enrollerSet()
		if _, err := usecase.NewEntitlementGranter(nil, list[1:]...); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing kind: expected ErrInvalidArgument, got %v", err)
		}
		dup := append(list, NewMockEnroller(model.ProductCourse))
		if _, err := usecase.NewEntitlementGranter(nil, dup...); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("duplicate kind: expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should surface enroller failures", func(t *testing.T) {
		byKind, list := enrollerSet()
		byKind[model.ProductCourse].EnrollFunc = func(context.Context, repository.Tx, *model.Entitlement) (bool, error) {
			return false, storageErr("insert")
		}
		g, _ := usecase.NewEntitlementGranter(nil, list...)
		_, err := g.Grant(ctx, repository.NoTX, "u1", course101, "p1")
		if !domain.IsStorageFailure(err) {
			t.Fatalf("expected storage failure, got %v", err)
		}
	})

	t.Run("should reject unknown kinds", func(t *testing.T) {
		_, list := enrollerSet()
		g, _ := usecase.NewEntitlementGranter(nil, list...)
		_, err := g.Grant(ctx, repository.NoTX, "u1", model.ProductRef{Kind: "ebook", ID: "x"}, "p1")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
