package auth

import "fmt"

// Role is the closed set of staff roles. Every permission decision in the
// service is made against these three values.
type Role string

const (
	RoleManager  Role = "Manager"
	RolePantry   Role = "Pantry"
	RoleDelivery Role = "Delivery"
)

var validRoles = map[Role]bool{
	RoleManager:  true,
	RolePantry:   true,
	RoleDelivery: true,
}

func (r Role) Valid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }

// ParseRole returns the Role named by s, or an error for anything outside
// the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
