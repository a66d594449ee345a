package types

import (
	"github.com/google/uuid"
)

// Role is the closed set of caller roles the platform recognizes. Adding a
// role means touching every switch over this type, which is the point: role
// handling is a compile-time decision, not a string comparison.
type Role int

const (
	// RoleBrandAgent is a field worker; sees only their own assignments.
	RoleBrandAgent Role = iota
	// RoleInternalFieldManager manages shifts within one organization.
	RoleInternalFieldManager
	// RoleOrganizationAdmin administers one organization.
	RoleOrganizationAdmin
	// RoleSuperAdmin is platform staff; unscoped.
	RoleSuperAdmin
)

func (r Role) String() string {
	switch r {
	case RoleBrandAgent:
		return "brand_agent"
	case RoleInternalFieldManager:
		return "internal_field_manager"
	case RoleOrganizationAdmin:
		return "organization_admin"
	case RoleSuperAdmin:
		return "super_admin"
	}
	return "unknown"
}

// RoleFromString resolves the wire form of a role. Unknown values map to
// RoleInternalFieldManager, the organization-scoped safe default.
func RoleFromString(v string) Role {
	switch v {
	case "brand_agent":
		return RoleBrandAgent
	case "internal_field_manager":
		return RoleInternalFieldManager
	case "organization_admin":
		return RoleOrganizationAdmin
	case "super_admin":
		return RoleSuperAdmin
	}
	return RoleInternalFieldManager
}

// Identity is the already-authenticated caller triple resolved upstream.
// The engine trusts it completely and performs no authentication itself.
type Identity struct {
	SubjectID      uuid.UUID
	Role           Role
	OrganizationID uuid.UUID
}
