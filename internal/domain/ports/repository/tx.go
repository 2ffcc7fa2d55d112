package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a database transaction, passing the
// transaction handle as tx. Repository methods accept the same handle; a nil
// tx means "use the pool" (non-transactional path).
//
// The concrete tx type is infra-defined (pgx.Tx for Postgres). All
// read-then-write sequences in the reconciliation core run through WithTx so
// that conditional updates and the entitlement insert commit together.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
