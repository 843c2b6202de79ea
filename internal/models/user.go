package models

import "time"

// UserRole represents the account types of the work platform.
type UserRole string

const (
	RoleJobseeker UserRole = "jobseeker"
	RoleCompany   UserRole = "company"
	RoleAgent     UserRole = "agent"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleJobseeker, RoleCompany, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// UserStatus represents the administrative approval state of an account.
// This subsystem only reads the status; transitions happen elsewhere.
type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusApproved  UserStatus = "approved"
	StatusRejected  UserStatus = "rejected"
	StatusSuspended UserStatus = "suspended"
)

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	Name         string     `db:"name" json:"name"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Location     *string    `db:"location" json:"location,omitempty"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Sanitized returns the public view of the user. The json:"-" tag on
// PasswordHash already strips it from marshalled output; Sanitized
// exists so callers never hand the raw record to a response by
// accident.
func (u *User) Sanitized() SanitizedUser {
	return SanitizedUser{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		Name:        u.Name,
		Phone:       u.Phone,
		Location:    u.Location,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// SanitizedUser is the user record with credentials stripped.
type SanitizedUser struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Role        UserRole   `json:"role"`
	Status      UserStatus `json:"status"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone,omitempty"`
	Location    *string    `json:"location,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
