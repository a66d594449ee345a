package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwaxman519/rishi-next-sub005/pkg/constants"
	"github.com/mwaxman519/rishi-next-sub005/pkg/repo"
)

var (
	ErrNoTx   = errors.New("no transaction found in context")
	ErrNoPool = errors.New("no database pool found in context")
)

// setTenantQuery pins the transaction-local tenant setting; the third
// argument makes it expire at commit or rollback.
const setTenantQuery = "SELECT set_config('app.current_tenant', $1, true)"

func WithTx(ctx context.Context, tx repo.Tx) context.Context {
	return context.WithValue(ctx, constants.TxKey, tx)
}

func UseTx(ctx context.Context) (repo.Tx, error) {
	tx := ctx.Value(constants.TxKey)
	if tx == nil {
		return UsePool(ctx)
	}
	return tx.(repo.Tx), nil
}

func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, constants.PoolKey, pool)
}

func UsePool(ctx context.Context) (*pgxpool.Pool, error) {
	pool := ctx.Value(constants.PoolKey)
	if pool == nil {
		return nil, ErrNoPool
	}
	return pool.(*pgxpool.Pool), nil
}

// ApplyTenant pins the caller's tenant on an already-started transaction, so
// policies keyed on app.current_tenant see it. A context without a tenant
// leaves the transaction unscoped; that is not an error.
func ApplyTenant(ctx context.Context, tx repo.Tx) error {
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return nil
	}
	_, err = tx.Exec(ctx, setTenantQuery, tenantID.String())
	return err
}

// InTx runs fn inside a transaction. An existing transaction on the context
// is reused so nested calls collapse into one atomic unit; otherwise a new
// transaction is started from the pool and committed or rolled back here.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(repo.Tx); ok && existing != nil {
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	if tErr := ApplyTenant(ctx, tx); tErr != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(tErr, rErr)
		}
		return tErr
	}

	txCtx := WithTx(ctx, tx)
	if err := fn(txCtx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func InTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
