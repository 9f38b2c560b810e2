package warranty

import (
	"context"
	"time"

	"doorstep/internal/domain"
)

type WarrantyRepository interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Warranty, error)
	GetByCode(ctx context.Context, code string) (*domain.Warranty, error)
	Create(ctx context.Context, w *domain.Warranty) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type ServiceReader interface {
	GetService(ctx context.Context, id int64) (*domain.Service, error)
}

type Notifier interface {
	Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error
}
