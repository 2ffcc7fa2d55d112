package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, user_id, amount, currency, gateway, transaction_ref, gateway_ref, status,
  last_code, last_message, verified_by, verified_at, notes, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var status string
	if err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency, &p.Gateway, &p.TransactionRef, &p.GatewayRef, &status,
		&p.LastCode, &p.LastMessage, &p.VerifiedBy, &p.VerifiedAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}

func (r *paymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, user_id, amount, currency, gateway, transaction_ref, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderID, p.UserID, p.Amount, p.Currency, p.Gateway, p.TransactionRef, string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByTransactionRef(ctx context.Context, tx repository.Tx, gateway, ref string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway=$1 AND transaction_ref=$2`
	row, err := pickRow(ctx, r.pool, tx, q, gateway, ref)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindPendingByOrder(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1 AND status='pending' LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIfPending atomically updates status only when current status is 'pending'.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, obs repository.Observation) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       gateway_ref = COALESCE($3, gateway_ref),
       last_code = COALESCE($4, last_code),
       last_message = COALESCE($5, last_message),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending'`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), obs.GatewayRef, obs.Code, obs.Message)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ResolveIfPending(ctx context.Context, tx repository.Tx, id string, res repository.Resolution) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       verified_by = $3,
       verified_at = $4,
       notes = $5,
       gateway_ref = COALESCE($6, gateway_ref),
       updated_at = $4
 WHERE id = $1
   AND status = 'pending'`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(res.Status), res.OperatorID, res.At, res.Notes, res.GatewayRef)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) Observe(ctx context.Context, tx repository.Tx, id string, obs repository.Observation) error {
	const q = `
UPDATE payments
   SET gateway_ref = COALESCE($2, gateway_ref),
       last_code = COALESCE($3, last_code),
       last_message = COALESCE($4, last_message),
       updated_at = NOW()
 WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, obs.GatewayRef, obs.Code, obs.Message)
	return err
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
