package domain

import "time"

// Role is the single role carried by a profile.
type Role string

const (
	RoleClient     Role = "client"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Staff reports whether the role may operate on tickets it does not own.
func (r Role) Staff() bool {
	return r == RoleTechnician || r == RoleAdmin
}

// Profile is an authenticated account. It is the authority source for every
// permission check and is read-only from the ticket engine's perspective.
type Profile struct {
	ID           string
	Role         Role
	FullName     string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
