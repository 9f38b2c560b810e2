package booking

import (
	"time"

	"doorstep/internal/domain"
)

type CreateBookingRequest struct {
	CustomerName  string `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"required,max=40"`
	DeviceType    string `json:"device_type" validate:"required,oneof=mobile laptop tablet"`
	Brand         string `json:"brand" validate:"required,max=80"`
	Model         string `json:"model" validate:"required,max=160"`
	Service       string `json:"service" validate:"required,max=80"`
	Tier          string `json:"tier" validate:"omitempty,oneof=economy standard premium same-day express"`
	PaymentMode   string `json:"payment_mode" validate:"required,oneof=pay-later upfront"`
	Address       string `json:"address" validate:"required,max=255"`
	City          string `json:"city" validate:"required,max=120"`
	Province      string `json:"province" validate:"omitempty,len=2"`
	PostalCode    string `json:"postal_code" validate:"required,max=10"`
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	TimeSlot      string `json:"time_slot" validate:"required,max=40"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type UpdateBookingRequest struct {
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,max=40"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	City          *string `json:"city" validate:"omitempty,max=120"`
	ScheduledDate *string `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot      *string `json:"time_slot" validate:"omitempty,max=40"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

type CancelRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason" validate:"max=500"`
}

type CompleteRequest struct {
	RepairNotes           string     `json:"repair_notes" validate:"max=5000"`
	PartsUsed             []string   `json:"parts_used" validate:"max=50"`
	RepairDurationMinutes int        `json:"repair_duration_minutes" validate:"gte=0,lte=1440"`
	FinalPrice            *float64   `json:"final_price" validate:"omitempty,gt=0"`
	CompletedAt           *time.Time `json:"completed_at"`
}

type CompletionResult struct {
	Booking    *domain.Booking          `json:"booking"`
	Completion *domain.RepairCompletion `json:"completion"`
	Warranty   *domain.Warranty         `json:"warranty"`
}

// Actor identifies who asks for a cancellation.
type Actor struct {
	Admin bool
	Email string
}

const (
	EventJobCreated   = "job.created"
	EventJobClaimed   = "job.claimed"
	EventJobCancelled = "job.cancelled"
)

type JobEvent struct {
	Type          string `json:"type"`
	Reference     string `json:"reference"`
	DeviceType    string `json:"device_type"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	City          string `json:"city"`
	ScheduledDate string `json:"scheduled_date"`
	TimeSlot      string `json:"time_slot"`
	TechnicianID  *int64 `json:"technician_id,omitempty"`
}

func jobEvent(kind string, b *domain.Booking) JobEvent {
	return JobEvent{
		Type:          kind,
		Reference:     b.Reference,
		DeviceType:    b.DeviceType,
		Brand:         b.Brand,
		Model:         b.Model,
		City:          b.City,
		ScheduledDate: b.ScheduledDate,
		TimeSlot:      b.TimeSlot,
		TechnicianID:  b.TechnicianID,
	}
}
