package booking

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrUnknownService    = errors.New("unknown service")
	ErrAlreadyClaimed    = errors.New("booking already claimed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAssigned       = errors.New("booking is not assigned to this technician")
	ErrNotEditable       = errors.New("booking can no longer be edited")
)
