package models

// RegisterRequest holds the payload for creating a new account.
// Admin accounts are provisioned out of band and cannot be
// self-registered.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=100"`
	Role            string `json:"role" validate:"required,oneof=jobseeker company agent"`
	Phone           string `json:"phone" validate:"omitempty,phone,max=20"`
	Location        string `json:"location" validate:"omitempty,max=100"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshRequest exchanges a refresh token for a new access token.
// The token may also arrive via cookie; the handler fills this in.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LogoutRequest carries the credentials being retired. Both fields
// are optional: logout is best-effort by contract.
type LogoutRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// AuthResponse returns issued tokens and the sanitized user.
type AuthResponse struct {
	User         SanitizedUser `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"`
}

// RefreshResponse returns a renewed access token. The refresh token
// itself is not rotated.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// UserInfo describes the authenticated user derived from claims.
type UserInfo struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}
