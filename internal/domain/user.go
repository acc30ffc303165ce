package domain

import "time"

// Role names. Matching is exact: no role implies another.
const (
	RoleCustomer  = "customer"
	RoleSeller    = "seller"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is created on first sign-in and never deleted. Only an admin changes Role.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRoles returns all roles.
func ValidRoles() []string {
	return []string{RoleCustomer, RoleSeller, RoleModerator, RoleAdmin}
}

// IsValidRole checks if role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
