package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.Enroller = (*enrollmentRepo)(nil)

// enrollmentRepo grants one product kind. All four enrollment tables share
// the shape (user_id, product_id, payment_id, granted_at) keyed by
// (user_id, product_id).
type enrollmentRepo struct {
	pool  *pgxpool.Pool
	kind  model.ProductKind
	table string
}

var enrollmentTables = map[model.ProductKind]string{
	model.ProductCourse:     "course_enrollments",
	model.ProductTestSeries: "test_series_enrollments",
	model.ProductQBank:      "qbank_enrollments",
	model.ProductWebinar:    "webinar_registrations",
}

func newEnrollmentRepo(pool *pgxpool.Pool, kind model.ProductKind) *enrollmentRepo {
	return &enrollmentRepo{pool: pool, kind: kind, table: enrollmentTables[kind]}
}

func NewCourseEnroller(pool *pgxpool.Pool) *enrollmentRepo {
	return newEnrollmentRepo(pool, model.ProductCourse)
}

func NewTestSeriesEnroller(pool *pgxpool.Pool) *enrollmentRepo {
	return newEnrollmentRepo(pool, model.ProductTestSeries)
}

func NewQBankEnroller(pool *pgxpool.Pool) *enrollmentRepo {
	return newEnrollmentRepo(pool, model.ProductQBank)
}

func NewWebinarEnroller(pool *pgxpool.Pool) *enrollmentRepo {
	return newEnrollmentRepo(pool, model.ProductWebinar)
}

// Enrollers returns one enroller per product kind.
func Enrollers(pool *pgxpool.Pool) []repository.Enroller {
	out := make([]repository.Enroller, 0, len(model.ProductKinds))
	for _, k := range model.ProductKinds {
		out = append(out, newEnrollmentRepo(pool, k))
	}
	return out
}

func (r *enrollmentRepo) Kind() model.ProductKind { return r.kind }

// Enroll inserts the entitlement; an existing row is reported as created=false.
func (r *enrollmentRepo) Enroll(ctx context.Context, tx repository.Tx, e *model.Entitlement) (bool, error) {
	if e.Product.Kind != r.kind {
		return false, fmt.Errorf("%w: %s enroller got %s", domain.ErrInvalidArgument, r.kind, e.Product.Kind)
	}
	q := `INSERT INTO ` + r.table + ` (user_id, product_id, payment_id, granted_at)
VALUES ($1,$2,NULLIF($3,''),$4)
ON CONFLICT (user_id, product_id) DO NOTHING`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.UserID, e.Product.ID, e.PaymentID, e.GrantedAt)
	if err != nil {
		return false, err
	}
	// ON CONFLICT absorbs existing rows and concurrent writers alike.
	return cmd.RowsAffected() == 1, nil
}

func (r *enrollmentRepo) Find(ctx context.Context, tx repository.Tx, userID, productID string) (*model.Entitlement, error) {
	q := `SELECT user_id, product_id, COALESCE(payment_id,''), granted_at FROM ` + r.table + ` WHERE user_id=$1 AND product_id=$2`
	row, err := pickRow(ctx, r.pool, tx, q, userID, productID)
	if err != nil {
		return nil, err
	}
	e := &model.Entitlement{Product: model.ProductRef{Kind: r.kind}}
	if err := row.Scan(&e.UserID, &e.Product.ID, &e.PaymentID, &e.GrantedAt); err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}
