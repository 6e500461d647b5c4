package auth

import (
	"github.com/spec-kit/auth-service/internal/domain"
)

// grants describes what a role may do. Unconditional permissions apply to any
// resource; own-scope permissions apply only when the caller owns the
// resource under check.
type grants struct {
	unconditional map[domain.Permission]struct{}
	ownScope      map[domain.Permission]struct{}
}

func permSet(perms ...domain.Permission) map[domain.Permission]struct{} {
	set := make(map[domain.Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// AuthorizationEngine evaluates permission checks against a static
// role→permission table resolved at startup. It holds no mutable state and is
// safe for concurrent use.
type AuthorizationEngine struct {
	table map[domain.Role]grants
}

// NewAuthorizationEngine builds the engine with the default role table. The
// role set is closed; every role defined in domain must have an entry here,
// which TestRoleTableCoversAllRoles enforces.
func NewAuthorizationEngine() *AuthorizationEngine {
	return &AuthorizationEngine{
		table: map[domain.Role]grants{
			domain.RoleAdmin: {
				unconditional: permSet(domain.PermissionRead, domain.PermissionWrite, domain.PermissionDelete, domain.PermissionAdmin),
			},
			domain.RoleEditor: {
				unconditional: permSet(domain.PermissionRead, domain.PermissionWrite),
				ownScope:      permSet(domain.PermissionDelete),
			},
			domain.RoleUser: {
				ownScope: permSet(domain.PermissionRead, domain.PermissionWrite, domain.PermissionDelete),
			},
			domain.RoleGuest: {},
		},
	}
}

// Check reports whether the principal may exercise the permission.
// resourceOwnerID is empty when the action has no ownership context.
// Evaluation order: admin always passes; an unconditional grant passes; an
// own-scope grant passes only when the principal owns the resource. Denial is
// a plain false, the HTTP boundary turns it into a 403.
func (e *AuthorizationEngine) Check(principal domain.Principal, permission domain.Permission, resourceOwnerID string) bool {
	if principal.Role == domain.RoleAdmin {
		return true
	}

	g, ok := e.table[principal.Role]
	if !ok {
		return false
	}
	if _, ok := g.unconditional[permission]; ok {
		return true
	}
	if resourceOwnerID != "" && resourceOwnerID == principal.UserID {
		if _, ok := g.ownScope[permission]; ok {
			return true
		}
	}
	return false
}

// Roles returns the roles the engine has grants for.
func (e *AuthorizationEngine) Roles() []domain.Role {
	roles := make([]domain.Role, 0, len(e.table))
	for role := range e.table {
		roles = append(roles, role)
	}
	return roles
}
