package models

import "fmt"

// Role is the permission class of the acting dashboard user
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleClinician    Role = "clinician"
	RoleLabTech      Role = "lab_tech"
	RolePharmacist   Role = "pharmacist"
	RoleTelemedicine Role = "telemedicine"
	RoleRegulator    Role = "regulator"
	RoleDeveloper    Role = "developer"
	RolePatient      Role = "patient"
)

var allRoles = []Role{
	RoleAdmin,
	RoleClinician,
	RoleLabTech,
	RolePharmacist,
	RoleTelemedicine,
	RoleRegulator,
	RoleDeveloper,
	RolePatient,
}

// AllRoles returns every declared role in declaration order
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// IsValid reports whether r is one of the declared roles
func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the wire form of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw string into a declared Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
