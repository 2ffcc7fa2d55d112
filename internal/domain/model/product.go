package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
)

// ProductKind discriminates the purchasable product families.
type ProductKind string

const (
	ProductCourse     ProductKind = "course"
	ProductTestSeries ProductKind = "test_series"
	ProductQBank      ProductKind = "qbank"
	ProductWebinar    ProductKind = "webinar"
)

// ProductKinds lists every kind in a stable order.
var ProductKinds = []ProductKind{ProductCourse, ProductTestSeries, ProductQBank, ProductWebinar}

func (k ProductKind) Valid() bool {
	switch k {
	case ProductCourse, ProductTestSeries, ProductQBank, ProductWebinar:
		return true
	}
	return false
}

// ParseProductKind accepts the canonical names plus a few common aliases.
func ParseProductKind(s string) (ProductKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "course":
		return ProductCourse, nil
	case "test_series", "testseries", "test-series":
		return ProductTestSeries, nil
	case "qbank", "question_bank", "question-bank":
		return ProductQBank, nil
	case "webinar":
		return ProductWebinar, nil
	}
	return "", fmt.Errorf("%w: unknown product kind %q", domain.ErrInvalidArgument, s)
}

// ProductRef points at exactly one product. The zero value is invalid;
// build it with NewProductRef.
type ProductRef struct {
	Kind ProductKind `json:"kind"`
	ID   string      `json:"id"`
}

func NewProductRef(kind ProductKind, id string) (ProductRef, error) {
	id = strings.TrimSpace(id)
	if !kind.Valid() || id == "" {
		return ProductRef{}, fmt.Errorf("%w: product ref %s/%q", domain.ErrInvalidArgument, kind, id)
	}
	return ProductRef{Kind: kind, ID: id}, nil
}

func (r ProductRef) IsZero() bool { return r.Kind == "" && r.ID == "" }

func (r ProductRef) String() string { return string(r.Kind) + ":" + r.ID }

// CatalogEntry is the current listing of a product.
type CatalogEntry struct {
	Ref      ProductRef
	Title    string
	Price    decimal.Decimal
	Currency string
}
