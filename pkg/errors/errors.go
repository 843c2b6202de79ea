package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the session protocol.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "email is already registered")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrAccountPending     = New("ACCOUNT_PENDING", http.StatusForbidden, "account is awaiting approval")
	ErrAccountSuspended   = New("ACCOUNT_SUSPENDED", http.StatusForbidden, "account is suspended")
	ErrAccountRejected    = New("ACCOUNT_REJECTED", http.StatusForbidden, "account registration was rejected")
	ErrAccountUnavailable = New("ACCOUNT_UNAVAILABLE", http.StatusForbidden, "account is not available")
	ErrRefreshMissing     = New("REFRESH_MISSING", http.StatusUnauthorized, "refresh token is required")
	ErrRefreshInvalid     = New("REFRESH_INVALID", http.StatusUnauthorized, "refresh token is invalid or expired")
	ErrWrongTokenType     = New("WRONG_TOKEN_TYPE", http.StatusUnauthorized, "token type is not valid for this operation")
	ErrUserUnavailable    = New("USER_UNAVAILABLE", http.StatusForbidden, "user account is no longer available")
	ErrTokenExpired       = New("TOKEN_EXPIRED", http.StatusUnauthorized, "token has expired")
	ErrTokenInvalid       = New("TOKEN_INVALID", http.StatusUnauthorized, "token is invalid")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "something went wrong, please try again later")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
