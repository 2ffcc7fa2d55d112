package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.GatewayConfigRepository = (*gatewayConfigRepo)(nil)

// gatewayConfigRepo stores merchant configuration. Only SecretCipher is
// persisted; Secret never reaches the database.
type gatewayConfigRepo struct{ pool *pgxpool.Pool }

func NewGatewayConfigRepo(pool *pgxpool.Pool) *gatewayConfigRepo {
	return &gatewayConfigRepo{pool: pool}
}

func (r *gatewayConfigRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error) {
	const q = `SELECT name, merchant_id, merchant_name, secret_cipher, key_index, currency, callback_path, active
FROM gateway_configs WHERE name=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, name)
	if err != nil {
		return nil, err
	}
	c := &model.GatewayConfig{}
	if err := row.Scan(&c.Name, &c.MerchantID, &c.MerchantName, &c.SecretCipher, &c.KeyIndex, &c.Currency, &c.CallbackPath, &c.Active); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (r *gatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, c *model.GatewayConfig) error {
	const q = `
INSERT INTO gateway_configs (name, merchant_id, merchant_name, secret_cipher, key_index, currency, callback_path, active, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
ON CONFLICT (name) DO UPDATE SET
  merchant_id=$2, merchant_name=$3, secret_cipher=$4, key_index=$5, currency=$6, callback_path=$7, active=$8, updated_at=NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, c.Name, c.MerchantID, c.MerchantName, c.SecretCipher, c.KeyIndex, c.Currency, c.CallbackPath, c.Active)
	return err
}
