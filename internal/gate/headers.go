package gate

import (
	"encoding/json"
	"net/http"
)

// Forwarded identity headers, set by the gate and consumed by downstream
// handlers. Permissions travel as a JSON-encoded array of strings.
const (
	HeaderAdminUserID      = "x-admin-user-id"
	HeaderAdminRole        = "x-admin-role"
	HeaderAdminEmail       = "x-admin-email"
	HeaderAdminPermissions = "x-admin-permissions"
)

// EncodePermissions serializes a permission set for header transport.
func EncodePermissions(perms []string) string {
	if perms == nil {
		perms = []string{}
	}
	b, err := json.Marshal(perms)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodePermissions parses the forwarded permission header. Unparsable input
// decodes to the empty set so authorization checks fail closed rather than
// erroring out.
func DecodePermissions(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var perms []string
	if err := json.Unmarshal([]byte(raw), &perms); err != nil || perms == nil {
		return []string{}
	}
	return perms
}

// ForwardedIdentity reads the gate's identity headers off a request.
// A request that never passed the gate yields zero values and an empty
// permission set.
func ForwardedIdentity(h http.Header) (userID, role, email string, perms []string) {
	return h.Get(HeaderAdminUserID),
		h.Get(HeaderAdminRole),
		h.Get(HeaderAdminEmail),
		DecodePermissions(h.Get(HeaderAdminPermissions))
}
