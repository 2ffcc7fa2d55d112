package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
)

var _ repository.UserContactRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo reads notification contacts from the users table.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.UserContact) error {
	const q = `
INSERT INTO users (id, email, name, telegram_chat_id)
VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,0))
ON CONFLICT (id) DO UPDATE SET
  email=NULLIF($2,''), name=NULLIF($3,''), telegram_chat_id=NULLIF($4,0);`
	_, err := execSQL(ctx, r.pool, tx, q, u.UserID, u.Email, u.Name, u.TelegramChatID)
	return err
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserContact, error) {
	const q = `
SELECT id, COALESCE(email,''), COALESCE(name,''), COALESCE(telegram_chat_id,0)
  FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.UserContact
	if err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.TelegramChatID); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
