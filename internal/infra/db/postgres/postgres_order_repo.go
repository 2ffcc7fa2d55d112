package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `o.id, o.user_id, o.product_kind, o.product_id, o.price, o.currency, o.status,
  o.gateway_name, o.transaction_ref, o.gateway_txn_id, o.created_at, o.updated_at, o.settled_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	var kind, status string
	if err := row.Scan(
		&o.ID, &o.UserID, &kind, &o.Product.ID, &o.Price, &o.Currency, &status,
		&o.GatewayName, &o.TransactionRef, &o.GatewayTxnID, &o.CreatedAt, &o.UpdatedAt, &o.SettledAt,
	); err != nil {
		return nil, mapErr(err)
	}
	o.Product.Kind = model.ProductKind(kind)
	o.Status = model.OrderStatus(status)
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (id, user_id, product_kind, product_id, price, currency, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.UserID, string(o.Product.Kind), o.Product.ID, o.Price, o.Currency, string(o.Status), o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindPendingByUserProduct(ctx context.Context, tx repository.Tx, userID string, ref model.ProductRef) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders o
 WHERE o.user_id=$1 AND o.product_kind=$2 AND o.product_id=$3 AND o.status='pending'
 LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, userID, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

// TransitionIfPending atomically updates status only when current status is 'pending'.
func (r *orderRepo) TransitionIfPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, gatewayTxnID *string, at time.Time) (bool, error) {
	const q = `
UPDATE orders
   SET status = $2,
       gateway_txn_id = COALESCE($3, gateway_txn_id),
       settled_at = $4,
       updated_at = $4
 WHERE id = $1
   AND status = 'pending'`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), gatewayTxnID, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *orderRepo) AttachGateway(ctx context.Context, tx repository.Tx, id, gateway, transactionRef string) error {
	const q = `UPDATE orders SET gateway_name=$2, transaction_ref=$3, updated_at=NOW() WHERE id=$1 AND status='pending';`
	_, err := execSQL(ctx, r.pool, tx, q, id, gateway, transactionRef)
	return err
}
