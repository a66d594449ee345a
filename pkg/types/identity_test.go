package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

func TestRole_RoundTrip(t *testing.T) {
	roles := []types.Role{
		types.RoleBrandAgent,
		types.RoleInternalFieldManager,
		types.RoleOrganizationAdmin,
		types.RoleSuperAdmin,
	}
	for _, role := range roles {
		require.Equal(t, role, types.RoleFromString(role.String()))
	}
}

func TestRoleFromString_UnknownDefaultsToManager(t *testing.T) {
	require.Equal(t, types.RoleInternalFieldManager, types.RoleFromString(""))
	require.Equal(t, types.RoleInternalFieldManager, types.RoleFromString("supervisor"))
	require.Equal(t, "unknown", types.Role(42).String())
}
