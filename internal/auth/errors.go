package auth

import (
	"errors"
	"net/http"
)

// Domain errors for authentication operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrDuplicate          = errors.New("username or email already registered")
	ErrInactive           = errors.New("account is not active")
)

// MapHTTPStatus maps auth domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidToken) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInactive) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
