package model

import "time"

// Roles stored in users.role.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RolePowerAgent = "power_agent"
	RoleAgent      = "agent"
	RoleCaptain    = "captain"
)

// User mirrors the `users` table.  Every user belongs to exactly one
// company; the company is the tenant boundary for all other tables.
type User struct {
	ID        uint64    // users.id
	CompanyID uint64    // users.company_id
	Email     string    // users.email
	Role      string    // users.role
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
	UpdatedAt time.Time // users.updated_at
}

// Actor is the resolved identity behind a request: who is calling, with
// which role, and inside which company.  It is passed explicitly into
// every service operation.
type Actor struct {
	UserID    uint64
	Role      string
	CompanyID uint64
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
