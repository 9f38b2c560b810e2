package payment

import (
	"time"

	"doorstep/internal/domain"
)

type CheckoutRequest struct {
	Reference string `json:"reference" validate:"required,max=40"`
}

type CheckoutResponse struct {
	SessionID string       `json:"session_id"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
	Tax       TaxBreakdown `json:"tax"`
}

// SessionStatus is the read-only view used by the confirmation page.
type SessionStatus struct {
	SessionID        string               `json:"session_id"`
	Status           string               `json:"status"`
	PaymentStatus    string               `json:"payment_status"`
	Paid             bool                 `json:"paid"`
	AmountTotal      float64              `json:"amount_total"`
	Currency         string               `json:"currency"`
	BookingReference string               `json:"booking_reference,omitempty"`
	BookingPayment   domain.PaymentStatus `json:"booking_payment_status,omitempty"`
}

type RefundRequest struct {
	Reference string   `json:"reference" validate:"required,max=40"`
	Amount    *float64 `json:"amount" validate:"omitempty,gt=0"`
	Reason    string   `json:"reason" validate:"max=500"`
}

type RefundResult struct {
	RefundID       string               `json:"refund_id"`
	Amount         float64              `json:"amount"`
	RefundedTotal  float64              `json:"refunded_total"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	Provisional    bool                 `json:"provisional"`
	BookingPayment *domain.Payment      `json:"payment"`
}

type PaymentLinkRequest struct {
	Reference string `json:"reference" validate:"required,max=40"`
}
