package payment

import (
	"context"
	"time"

	"doorstep/internal/domain"
)

type bookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	SetPaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error)
}

type paymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	CreateSettled(ctx context.Context, p *domain.Payment, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Payment, error)
	GetSettledForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	Mutate(ctx context.Context, id int64, fn func(p *domain.Payment) bool) (*domain.Payment, bool, error)
}

type eventLedger interface {
	Record(ctx context.Context, eventID, eventType string) (*domain.ProcessedEvent, error)
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID, reason string) error
}

type customerStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.CustomerProfile, error)
	Upsert(ctx context.Context, c *domain.CustomerProfile) error
}

type Notifier interface {
	Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error
}
