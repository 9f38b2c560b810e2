package payment

import (
	"context"
	"time"
)

// Gateway is the payment provider surface the coordinator needs. Amounts are
// integer cents.
type Gateway interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, p RefundParams) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventChargeRefunded    = "charge.refunded"
)

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type CustomerParams struct {
	Email string
	Name  string
	Phone string
}

type CheckoutLine struct {
	Label       string
	AmountCents int64
}

type CheckoutParams struct {
	CustomerID     string
	Currency       string
	Lines          []CheckoutLine
	SuccessURL     string
	CancelURL      string
	ExpiresAt      time.Time
	Metadata       map[string]string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	PaymentIntentID string            `json:"payment_intent"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
	ExpiresAt       int64             `json:"expires_at"`
}

type RefundParams struct {
	PaymentIntentID string
	AmountCents     int64
	Reason          string
}

type Refund struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Status      string `json:"status"`
}

type Charge struct {
	ID                  string `json:"id"`
	PaymentIntentID     string `json:"payment_intent"`
	AmountCents         int64  `json:"amount"`
	AmountRefundedCents int64  `json:"amount_refunded"`
	Refunded            bool   `json:"refunded"`
}

// Event is a verified webhook delivery. Only the object matching Type is set.
type Event struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Session *CheckoutSession `json:"session,omitempty"`
	Charge  *Charge          `json:"charge,omitempty"`
}
