package rbac

// Permission strings gate individual admin operations and route prefixes.
// These match the catalog served to the admin portal; renaming one is a
// breaking change for every issued credential that embeds it.
const (
	PermViewUsers        = "view_users"
	PermViewReports      = "view_reports"
	PermViewAnalytics    = "view_analytics"
	PermExportData       = "export_data"
	PermManageUsers      = "manage_users"
	PermInvestigateFraud = "investigate_fraud"
	PermModerateContent  = "moderate_content"
	PermManageSettings   = "manage_settings"
	PermViewTransactions = "view_transactions"
	PermManageRewards    = "manage_rewards"
	PermSystemAdmin      = "system_admin"
)

// Catalog is the full ordered permission set. super_admin holds all of it.
func Catalog() []string {
	return []string{
		PermViewUsers,
		PermViewReports,
		PermViewAnalytics,
		PermExportData,
		PermManageUsers,
		PermInvestigateFraud,
		PermModerateContent,
		PermManageSettings,
		PermViewTransactions,
		PermManageRewards,
		PermSystemAdmin,
	}
}

// Table maps each admin role to its fixed permission set.
// Build it once at startup and pass it by reference; nothing mutates it after
// construction. Issued credentials embed the set as of issuance time, so a
// table change never retroactively affects outstanding tokens.
type Table struct {
	byRole map[string][]string
}

func NewTable() *Table {
	analyst := []string{
		PermViewUsers,
		PermViewReports,
		PermViewAnalytics,
		PermExportData,
	}
	moderator := append(append([]string{}, analyst...),
		PermManageUsers,
		PermInvestigateFraud,
		PermModerateContent,
	)

	return &Table{
		byRole: map[string][]string{
			RoleAnalyst:    analyst,
			RoleModerator:  moderator,
			RoleSuperAdmin: Catalog(),
		},
	}
}

// PermissionsFor returns a copy of the role's permission set.
// Unknown roles get an empty set, never nil-panic paths downstream.
func (t *Table) PermissionsFor(role string) []string {
	perms, ok := t.byRole[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether perm is in the given permission set.
// Pure predicate; the set comes from an issued credential, not the table.
func HasPermission(perms []string, perm string) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the intersection of perms and wanted is non-empty.
func HasAnyPermission(perms []string, wanted ...string) bool {
	for _, w := range wanted {
		if HasPermission(perms, w) {
			return true
		}
	}
	return false
}
