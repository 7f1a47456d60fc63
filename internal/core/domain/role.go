package domain

import "time"

const (
	RoleAdmin   = "Admin"
	RoleUser    = "User"
	RoleManager = "Manager"
)

// DefaultRoles is the role set every deployment seeds at startup.
var DefaultRoles = []string{RoleAdmin, RoleUser, RoleManager}

// Role is a named permission group. Names are unique.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
