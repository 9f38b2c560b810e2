package admin

import "errors"

var (
	ErrUnknownStatus   = errors.New("unknown booking status")
	ErrBookingNotFound = errors.New("booking not found")
)
