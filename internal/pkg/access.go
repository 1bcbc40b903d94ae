package pkg

import (
	"fmt"

	"github.com/simp-lee/rbac"

	"github.com/simp-lee/studiogate/internal/domain"
)

// Resources and actions checked by AccessPolicy.
const (
	ResourceUsers    = "users"
	ResourceBookings = "bookings"

	ActionAssignRole   = "assign_role"
	ActionUpdateOthers = "update_others"
	ActionDelete       = "delete"
	ActionBookOthers   = "book_others"
	ActionCancelOthers = "cancel_others"
)

// rolePermissions maps every account role to its resource actions. Roles
// missing from a resource may only act on their own records.
var rolePermissions = map[string]map[string][]string{
	domain.RoleAdmin: {
		"*": {"*"},
	},
	domain.RoleInstructor: {
		ResourceBookings: {ActionBookOthers},
	},
	domain.RoleMember: {},
}

// AccessPolicy answers which role may do what, backed by an in-memory rbac
// service. Callers are checked by role, so each role is also registered as a
// subject holding itself.
type AccessPolicy struct {
	rbac rbac.Service
}

// NewAccessPolicy builds the policy for the studio roles.
func NewAccessPolicy() (*AccessPolicy, error) {
	svc, err := rbac.New(rbac.WithMemoryStorage())
	if err != nil {
		return nil, fmt.Errorf("access policy: %w", err)
	}

	for role, perms := range rolePermissions {
		if err := svc.CreateRole(role, role, ""); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("access policy: create role %s: %w", role, err)
		}
		for resource, actions := range perms {
			if err := svc.AddRolePermissions(role, resource, actions); err != nil {
				_ = svc.Close()
				return nil, fmt.Errorf("access policy: grant %s on %s: %w", role, resource, err)
			}
		}
		if err := svc.AssignRole(role, role); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("access policy: assign %s: %w", role, err)
		}
	}
	return &AccessPolicy{rbac: svc}, nil
}

// Allowed reports whether role may perform action on resource. Unknown roles
// and lookup errors deny.
func (p *AccessPolicy) Allowed(role, resource, action string) bool {
	ok, err := p.rbac.HasRolePermission(role, resource, action)
	return err == nil && ok
}

// Close releases the underlying rbac service.
func (p *AccessPolicy) Close() error {
	return p.rbac.Close()
}
