package payment

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotUpfront       = errors.New("booking is not an upfront payment")
	ErrNotPayLater      = errors.New("booking is not pay-later")
	ErrAlreadyPaid      = errors.New("booking is already paid")
	ErrNotPayable       = errors.New("booking cannot be paid in its current state")
	ErrNothingToRefund  = errors.New("no captured payment to refund")
	ErrRefundAmount     = errors.New("invalid refund amount")
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrNotConfigured    = errors.New("payment gateway is not configured")
)
