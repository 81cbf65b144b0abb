package audit

import "time"

// Event is an immutable, append-only audit record of admin activity.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; never block a sign-in on audit failures.
type Event struct {
	ID string `json:"id"`

	// Type indicates the category of the audit record.
	Type EventType `json:"type"`

	// ActorUserID is the authenticated admin causing the event (if known).
	ActorUserID string `json:"actor_user_id,omitempty"`
	ActorEmail  string `json:"actor_email,omitempty"`
	ActorRole   string `json:"actor_role,omitempty"`

	// IPAddress is the resolved client IP when available.
	IPAddress string `json:"ip_address,omitempty"`

	// Path is the request path for access events.
	Path string `json:"path,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeSignIn       EventType = "admin_sign_in"
	EventTypeSignOut      EventType = "admin_sign_out"
	EventTypeSignInDenied EventType = "admin_sign_in_denied"
)
