package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("too many failed login attempts")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAdminNotConfigured = errors.New("admin login is not configured")
)
