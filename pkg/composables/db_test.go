package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/itf"
)

func TestInTx_SetsTenantConfig(t *testing.T) {
	f := itf.Setup(t)

	tenantID := uuid.New()
	ctx := composables.WithPool(context.Background(), f.Pool)
	ctx = composables.WithTenantID(ctx, tenantID)

	err := composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		var current string
		if err := tx.QueryRow(txCtx, "SELECT current_setting('app.current_tenant', true)").Scan(&current); err != nil {
			return err
		}
		require.Equal(t, tenantID.String(), current)
		return nil
	})
	require.NoError(t, err)
}

func TestInTx_NoTenantLeavesConfigUnset(t *testing.T) {
	f := itf.Setup(t)

	ctx := composables.WithPool(context.Background(), f.Pool)
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		var current *string
		if err := tx.QueryRow(txCtx, "SELECT nullif(current_setting('app.current_tenant', true), '')").Scan(&current); err != nil {
			return err
		}
		require.Nil(t, current)
		return nil
	})
	require.NoError(t, err)
}
