package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodCash   PaymentMethod = "cash"
)

type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordRefunded  PaymentRecordStatus = "refunded"
	PaymentRecordExpired   PaymentRecordStatus = "expired"
)

// Payment is a money movement for a booking. Provisional is set when an admin
// action changed the row ahead of the gateway webhook confirming it.
type Payment struct {
	ID                      int64               `gorm:"primaryKey" json:"id"`
	BookingID               int64               `gorm:"index;not null" json:"booking_id"`
	Method                  PaymentMethod       `gorm:"type:varchar(20);not null" json:"method"`
	Type                    PaymentType         `gorm:"type:varchar(20);not null" json:"type"`
	Amount                  float64             `gorm:"not null" json:"amount"`
	RefundedAmount          float64             `gorm:"default:0" json:"refunded_amount"`
	Currency                string              `gorm:"type:varchar(3);default:'CAD'" json:"currency"`
	StripeCheckoutSessionID *string             `gorm:"type:varchar(255);uniqueIndex" json:"stripe_checkout_session_id,omitempty"`
	StripePaymentIntentID   *string             `gorm:"type:varchar(255);uniqueIndex" json:"stripe_payment_intent_id,omitempty"`
	Status                  PaymentRecordStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Provisional             bool                `gorm:"default:false" json:"provisional"`
	PaidAt                  *time.Time          `json:"paid_at,omitempty"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Refundable is what is left to refund on this payment.
func (p *Payment) Refundable() float64 {
	return p.Amount - p.RefundedAmount
}

// ProcessedEvent is the gateway webhook ledger keyed by the gateway event id.
type ProcessedEvent struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	StripeEventID   string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_event_id"`
	EventType       string     `gorm:"type:varchar(80);not null" json:"event_type"`
	Processed       bool       `gorm:"default:false" json:"processed"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (ProcessedEvent) TableName() string { return "stripe_events" }

type CustomerProfile struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name             string    `gorm:"type:varchar(255)" json:"name"`
	Phone            string    `gorm:"type:varchar(40)" json:"phone"`
	StripeCustomerID string    `gorm:"type:varchar(255)" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (CustomerProfile) TableName() string { return "customer_profiles" }
