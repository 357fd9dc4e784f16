package domain

import "time"

// Role is the flat authorization enum. There is no hierarchy between
// roles; authorization is plain membership in an allow-list.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the domain model for account holders. Administrators are
// ordinary users whose role is "admin".
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// FullName joins first and last name for display in notification messages.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
