package domain

import "fmt"

// Role is the permission level of a user.
type Role string

const (
	RoleComplainer Role = "complainer"
	RoleApprover   Role = "approver"
	RoleAdmin      Role = "admin"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleComplainer, RoleApprover, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleComplainer, RoleApprover, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored value into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}
