package domain

import "time"

// Claims is the verified identity attached to an authenticated request.
// Downstream checks depend on Username and Role only.
type Claims struct {
	Username  string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
