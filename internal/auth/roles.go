package auth

import "strings"

// Role is an explicit account attribute. Admin rights come from the role
// column, never from comparing usernames against a reserved value.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleMember):
		return RoleMember
	default:
		return RoleMember
	}
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
