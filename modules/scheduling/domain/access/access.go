// Package access translates the caller triple (subject, role, organization)
// into query restrictions and allow/deny decisions for shift operations.
package access

import (
	"fmt"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
	ActionCancel Action = "cancel"
)

// DeniedError is the write-path authorization failure. Read paths never
// surface it externally; a denied read looks like not-found to the caller.
type DeniedError struct {
	Action Action
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied for %q", e.Action)
}

// ScopeFilter rewrites a query filter to what the caller is allowed to see.
// The supplied filter is never trusted: forced fields overwrite whatever the
// caller requested.
func ScopeFilter(params *shift.FindParams, caller types.Identity) *shift.FindParams {
	if params == nil {
		params = &shift.FindParams{}
	}
	scoped := *params

	switch caller.Role {
	case types.RoleBrandAgent:
		// A brand agent only ever sees shifts where they are the named
		// agent, regardless of the filter they asked for.
		org := caller.OrganizationID
		agent := caller.SubjectID
		scoped.OrganizationID = &org
		scoped.AgentID = &agent
	case types.RoleInternalFieldManager, types.RoleOrganizationAdmin:
		org := caller.OrganizationID
		scoped.OrganizationID = &org
	case types.RoleSuperAdmin:
		// Unscoped; supplied filters pass through unchanged.
	default:
		// Unknown roles are organization-scoped, the safe default.
		org := caller.OrganizationID
		scoped.OrganizationID = &org
	}

	return &scoped
}

// CanReadRecord is the record-level check applied on top of pre-scoped
// queries (defense in depth) and on direct lookups.
func CanReadRecord(s shift.Shift, caller types.Identity) bool {
	switch caller.Role {
	case types.RoleSuperAdmin:
		return true
	case types.RoleBrandAgent:
		if s.OrganizationID() != caller.OrganizationID {
			return false
		}
		if s.HasActiveAssignee(caller.SubjectID) {
			return true
		}
		return s.Status() == shift.StatusDraft || s.Status() == shift.StatusOpen
	case types.RoleInternalFieldManager, types.RoleOrganizationAdmin:
		return s.OrganizationID() == caller.OrganizationID
	default:
		return s.OrganizationID() == caller.OrganizationID
	}
}

// Allowed is the binary write-permission check. Role-only, no per-record
// exceptions.
func Allowed(role types.Role, action Action) bool {
	switch action {
	case ActionCreate:
		// Any authenticated caller may create; the created shift's
		// organization is forced server-side.
		return true
	case ActionUpdate, ActionAssign, ActionCancel:
		switch role {
		case types.RoleInternalFieldManager, types.RoleOrganizationAdmin, types.RoleSuperAdmin:
			return true
		case types.RoleBrandAgent:
			return false
		default:
			return false
		}
	case ActionDelete:
		switch role {
		case types.RoleOrganizationAdmin, types.RoleSuperAdmin:
			return true
		case types.RoleBrandAgent, types.RoleInternalFieldManager:
			return false
		default:
			return false
		}
	}
	return false
}
