package models

import "time"

// AuditAction constants represent session events to be logged.
const (
	AuditActionRegister = "REGISTER"
	AuditActionLogin    = "LOGIN"
	AuditActionRefresh  = "TOKEN_REFRESH"
	AuditActionLogout   = "LOGOUT"
	AuditActionRevoke   = "SESSION_REVOKE"
)

// AuditLog represents an audit trail record for a session event.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	Detail    []byte    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
