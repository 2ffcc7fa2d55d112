package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.ProductCatalog = (*catalogRepo)(nil)

type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

var catalogTables = map[model.ProductKind]string{
	model.ProductCourse:     "courses",
	model.ProductTestSeries: "test_series",
	model.ProductQBank:      "question_banks",
	model.ProductWebinar:    "webinars",
}

func (r *catalogRepo) LookupPrice(ctx context.Context, ref model.ProductRef) (*model.CatalogEntry, error) {
	table, ok := catalogTables[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: product kind %q", domain.ErrInvalidArgument, ref.Kind)
	}
	q := `SELECT id, title, price, currency FROM ` + table + ` WHERE id=$1`
	row, err := pickRow(ctx, r.pool, nil, q, ref.ID)
	if err != nil {
		return nil, err
	}
	e := &model.CatalogEntry{Ref: model.ProductRef{Kind: ref.Kind}}
	if err := row.Scan(&e.Ref.ID, &e.Title, &e.Price, &e.Currency); err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// Upsert writes a listing. Used by seeding tools only; orders keep the price
// they were created with.
func (r *catalogRepo) Upsert(ctx context.Context, e *model.CatalogEntry) error {
	table, ok := catalogTables[e.Ref.Kind]
	if !ok {
		return fmt.Errorf("%w: product kind %q", domain.ErrInvalidArgument, e.Ref.Kind)
	}
	q := `INSERT INTO ` + table + ` (id, title, price, currency) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET title=$2, price=$3, currency=$4`
	_, err := execSQL(ctx, r.pool, nil, q, e.Ref.ID, e.Title, e.Price, e.Currency)
	return err
}
