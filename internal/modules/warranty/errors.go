package warranty

import "errors"

var (
	ErrNotCompleted     = errors.New("booking is not completed")
	ErrWarrantyNotFound = errors.New("warranty not found")
	ErrBookingNotFound  = errors.New("booking not found")
)
