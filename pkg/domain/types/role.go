package types

import "fmt"

// Role is the closed set of requester roles
type Role string

const (
	RoleResident          Role = "resident"
	RoleDepartmentOfficer Role = "department_officer"
	RoleUrbanCouncilor    Role = "urban_councilor"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{
		RoleResident,
		RoleDepartmentOfficer,
		RoleUrbanCouncilor,
	}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleResident, RoleDepartmentOfficer, RoleUrbanCouncilor:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
