package models

import "time"

// RefreshToken represents a persisted refresh token session. Only the
// SHA-256 digest of the token is stored; the raw value never touches
// the database.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	DeviceInfo string     `db:"device_info" json:"device_info"`
	IPAddress  string     `db:"ip_address" json:"ip_address"`
	Revoked    bool       `db:"revoked" json:"revoked"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Blacklist reason codes.
const (
	BlacklistReasonLogout = "logout"
)

// BlacklistedToken records an access token invalidated before its
// natural expiry. Rows past ExpiresAt are dead weight; the purge job
// may remove them at any time.
type BlacklistedToken struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
