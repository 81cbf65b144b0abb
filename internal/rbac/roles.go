package rbac

// Role names. Keep these stable; they are part of auth/admin contracts.
const (
	RoleAnalyst    = "analyst"
	RoleModerator  = "moderator"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsAdminRole reports whether role belongs to the closed admin role set.
// Roles are assigned at account creation and never change afterwards.
func IsAdminRole(role string) bool {
	switch role {
	case RoleAnalyst, RoleModerator, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
