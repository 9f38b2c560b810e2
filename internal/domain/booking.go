package domain

import "time"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAssigned   BookingStatus = "assigned"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// Active reports whether the booking can still move forward or be cancelled.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingAssigned || s == BookingInProgress
}

type PaymentMode string

const (
	PaymentModePayLater PaymentMode = "pay-later"
	PaymentModeUpfront  PaymentMode = "upfront"
)

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
)

// Settled reports whether money has been captured for the booking.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted || s == PaymentPartiallyRefunded || s == PaymentRefunded
}

type Booking struct {
	ID            int64         `json:"id"`
	Reference     string        `json:"reference"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	CustomerPhone string        `json:"customer_phone"`
	DeviceType    string        `json:"device_type"`
	Brand         string        `json:"brand"`
	Model         string        `json:"model"`
	ServiceID     int64         `json:"service_id"`
	PricingTier   PricingTier   `json:"pricing_tier"`
	Status        BookingStatus `json:"status"`
	PaymentMode   PaymentMode   `json:"payment_mode"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	QuotedPrice   float64       `json:"quoted_price"`
	FinalPrice    *float64      `json:"final_price,omitempty"`
	TechnicianID  *int64        `json:"technician_id,omitempty"`

	Address       string `json:"address"`
	City          string `json:"city"`
	Province      string `json:"province"`
	PostalCode    string `json:"postal_code"`
	ScheduledDate string `json:"scheduled_date"`
	TimeSlot      string `json:"time_slot"`
	Notes         string `json:"notes,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`

	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ChargeablePrice is the amount the customer pays before tax.
func (b *Booking) ChargeablePrice() float64 {
	if b.FinalPrice != nil {
		return *b.FinalPrice
	}
	return b.QuotedPrice
}
