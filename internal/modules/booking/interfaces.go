package booking

import (
	"context"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/modules/pricing"
	"doorstep/internal/repository"
)

// BookingRepository defines the interface for booking operations
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus, limit int) ([]domain.Booking, error)
	ListByTechnician(ctx context.Context, technicianID int64, limit int) ([]domain.Booking, error)
	Claim(ctx context.Context, id, technicianID int64, at time.Time) (bool, error)
	Transition(ctx context.Context, id int64, t repository.Transition, at time.Time) (bool, error)
	UpdateDetails(ctx context.Context, id int64, fields map[string]interface{}, at time.Time) (bool, error)
}

type CompletionRepository interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.RepairCompletion, error)
	Create(ctx context.Context, c *domain.RepairCompletion) error
}

type ServiceCatalog interface {
	GetServiceBySlug(ctx context.Context, slug, deviceType string) (*domain.Service, error)
}

type Quoter interface {
	Calculate(ctx context.Context, in pricing.QuoteInput) (*pricing.PriceBreakdown, error)
}

type WarrantyIssuer interface {
	IssueIfAbsent(ctx context.Context, bookingID int64) (*domain.Warranty, error)
}

type Notifier interface {
	Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error
}

// PaymentLinker creates a payable link for an unpaid upfront booking.
type PaymentLinker interface {
	CreatePaymentLink(ctx context.Context, b *domain.Booking) (string, error)
}

// JobPublisher receives job lifecycle events for the technician feed.
type JobPublisher interface {
	Publish(event JobEvent)
}
