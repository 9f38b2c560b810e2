package admin

import (
	"context"

	"doorstep/internal/domain"
)

type BookingReader interface {
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus, limit int) ([]domain.Booking, error)
}

type PaymentReader interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
}

type NotificationReader interface {
	ListByReference(ctx context.Context, reference string) ([]domain.Notification, error)
}

type WarrantyReader interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Warranty, error)
}

type StatsReader interface {
	BookingsByStatus(ctx context.Context) (map[string]int64, error)
	BookingsByPaymentStatus(ctx context.Context) (map[string]int64, error)
	NetCollected(ctx context.Context) (float64, error)
}
