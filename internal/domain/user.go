package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// CanManageTickets reports whether the role may triage and resolve tickets.
func (r Role) CanManageTickets() bool {
	return r == RoleAgent || r == RoleAdmin
}

// CanAdministrate reports whether the role may manage users, categories and
// perform admin-only ticket operations.
func (r Role) CanAdministrate() bool {
	return r == RoleAdmin
}

// User is an account that submits or works tickets.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	FirstName    string
	LastName     string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManageTickets reports whether the user may triage and resolve tickets.
func (u *User) CanManageTickets() bool {
	return u != nil && u.Role.CanManageTickets()
}

// CanAdministrate reports whether the user holds the admin role.
func (u *User) CanAdministrate() bool {
	return u != nil && u.Role.CanAdministrate()
}
