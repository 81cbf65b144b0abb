package gate

import "strings"

// Requirement binds a route path prefix to the single permission needed to
// access it. A request path matches a prefix on segment boundaries only, so
// "/admin/users" covers "/admin/users" and "/admin/users/5" but never
// "/admin/userscan".
type Requirement struct {
	Prefix     string
	Permission string
}

// Requirements resolves the permission required for a path. When several
// prefixes match, the longest one wins. Build once at startup; immutable
// afterwards.
type Requirements struct {
	entries []Requirement
}

func NewRequirements(entries ...Requirement) *Requirements {
	out := make([]Requirement, 0, len(entries))
	for _, e := range entries {
		if e.Prefix == "" || e.Permission == "" {
			continue
		}
		out = append(out, Requirement{
			Prefix:     strings.TrimSuffix(e.Prefix, "/"),
			Permission: e.Permission,
		})
	}
	return &Requirements{entries: out}
}

// Resolve returns the required permission for path and whether any
// requirement matched.
func (r *Requirements) Resolve(path string) (string, bool) {
	best := -1
	perm := ""
	for _, e := range r.entries {
		if !prefixMatches(path, e.Prefix) {
			continue
		}
		if len(e.Prefix) > best {
			best = len(e.Prefix)
			perm = e.Permission
		}
	}
	return perm, best >= 0
}

func prefixMatches(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
