package domain

import "time"

// Kind is the stable string tag of a security event.
type Kind string

// Security event kinds. These tags are part of the external interface
// (dashboards, the event stream, alert payloads) and must stay stable.
const (
	KindLoginSuccess           Kind = "login_success"
	KindLoginFailed            Kind = "login_failed"
	KindLogout                 Kind = "logout"
	KindSessionHijackAttempt   Kind = "session_hijack_attempt"
	KindSuspiciousActivity     Kind = "suspicious_activity"
	KindIPAddressChanged       Kind = "ip_address_changed"
	KindUserAgentChanged       Kind = "user_agent_changed"
	KindSessionExtended        Kind = "session_extended"
	KindSessionTerminated      Kind = "session_terminated"
	KindConcurrentSessionLimit Kind = "concurrent_session_limit"
	KindPasswordChanged        Kind = "password_changed"
	KindAccountLocked          Kind = "account_locked"
)

// securitySensitive is the subset of kinds that drive alert rate limiting and
// the dashboard's security counters.
var securitySensitive = map[Kind]bool{
	KindSessionHijackAttempt:   true,
	KindSuspiciousActivity:     true,
	KindIPAddressChanged:       true,
	KindUserAgentChanged:       true,
	KindConcurrentSessionLimit: true,
	KindAccountLocked:          true,
}

// SecuritySensitive reports whether k counts toward alert rate limiting.
func (k Kind) SecuritySensitive() bool {
	return securitySensitive[k]
}

// Event is one immutable security log entry. SessionID weakly references a
// session record: it is cleared (not cascaded) when the record is destroyed,
// so events outlive their sessions.
// The json tags are the stream wire format consumed by the Loki shipper.
type Event struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	OrgID     string         `json:"org_id"`
	SessionID *string        `json:"session_id,omitempty"` // nil when not tied to a session or after record destruction
	Kind      Kind           `json:"kind"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
