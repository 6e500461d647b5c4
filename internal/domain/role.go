package domain

// Role enumerates account roles. The set is closed; adding a role means
// extending the permission table in internal/auth as well.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
	RoleGuest  Role = "GUEST"
)

// Roles lists every defined role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleUser, RoleGuest}
}

// ParseRole maps a wire value onto the closed role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleUser, RoleGuest:
		return Role(s), true
	}
	return "", false
}

// Permission names a capability gating an action.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
	PermissionAdmin  Permission = "admin"
)
