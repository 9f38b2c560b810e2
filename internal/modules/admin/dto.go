package admin

import "doorstep/internal/domain"

// BookingDetail is everything support needs to answer a customer about one booking.
type BookingDetail struct {
	Booking       *domain.Booking       `json:"booking"`
	Payments      []domain.Payment      `json:"payments"`
	Notifications []domain.Notification `json:"notifications"`
	Warranty      *domain.Warranty      `json:"warranty,omitempty"`
}

type Stats struct {
	BookingsByStatus        map[string]int64 `json:"bookings_by_status"`
	BookingsByPaymentStatus map[string]int64 `json:"bookings_by_payment_status"`
	NetCollected            float64          `json:"net_collected"`
}
