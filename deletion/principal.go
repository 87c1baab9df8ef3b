package deletion

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleViewer  Role = "viewer"
)

// Principal is the authenticated caller of a destructive operation.
type Principal struct {
	Subject string
	Role    Role
}

func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}
