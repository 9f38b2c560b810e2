package warranty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/repository"

	"github.com/google/uuid"
)

const maxCodeAttempts = 3

type Service struct {
	warranties WarrantyRepository
	bookings   BookingReader
	services   ServiceReader
	notifier   Notifier
	log        *slog.Logger
	now        func() time.Time
}

func NewService(warranties WarrantyRepository, bookings BookingReader, services ServiceReader, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		warranties: warranties,
		bookings:   bookings,
		services:   services,
		notifier:   notifier,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueIfAbsent returns the booking's warranty, creating it on first call.
// Repeated or concurrent calls for the same booking yield the same row.
func (s *Service) IssueIfAbsent(ctx context.Context, bookingID int64) (*domain.Warranty, error) {
	existing, err := s.warranties.GetByBookingID(ctx, bookingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Upstream("load warranty", err)
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("booking", ErrBookingNotFound)
	}
	if err != nil {
		return nil, apperr.Upstream("load booking", err)
	}
	if b.Status != domain.BookingCompleted {
		return nil, apperr.Conflict(fmt.Sprintf("booking %s is %s", b.Reference, b.Status), ErrNotCompleted)
	}

	svc, err := s.services.GetService(ctx, b.ServiceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Upstream("load service", err)
	}
	days := svc.WarrantyDays()

	issued := s.now()
	if b.CompletedAt != nil {
		issued = b.CompletedAt.UTC()
	}

	w := &domain.Warranty{
		BookingID:    b.ID,
		IssueDate:    issued,
		ExpiryDate:   issued.AddDate(0, 0, days),
		DurationDays: days,
		Status:       domain.WarrantyActive,
	}
	for attempt := 1; ; attempt++ {
		w.ID = 0
		w.Code = newCode(issued)
		err = s.warranties.Create(ctx, w)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Upstream("create warranty", err)
		}
		// Either another caller issued it first or the code collided.
		if winner, gerr := s.warranties.GetByBookingID(ctx, bookingID); gerr == nil {
			return winner, nil
		}
		if attempt == maxCodeAttempts {
			return nil, apperr.Upstream("create warranty", err)
		}
	}

	s.log.Info("warranty issued", "booking_ref", b.Reference, "warranty_code", w.Code, "expiry_date", w.ExpiryDate.Format("2006-01-02"))
	if err := s.notifier.Send(ctx, b.CustomerEmail, domain.NotifyWarrantyIssued, map[string]any{
		"booking_reference": b.Reference,
		"customer_name":     b.CustomerName,
		"warranty_code":     w.Code,
		"issue_date":        w.IssueDate.Format("2006-01-02"),
		"expiry_date":       w.ExpiryDate.Format("2006-01-02"),
		"duration_days":     w.DurationDays,
	}); err != nil {
		s.log.Warn("warranty notification failed", "booking_ref", b.Reference, "error", err)
	}
	return w, nil
}

// Lookup finds a warranty by code; the booking reference must match too.
func (s *Service) Lookup(ctx context.Context, code, reference string) (*domain.Warranty, *domain.Booking, error) {
	w, err := s.warranties.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperr.NotFound("warranty", ErrWarrantyNotFound)
	}
	if err != nil {
		return nil, nil, apperr.Upstream("load warranty", err)
	}
	b, err := s.bookings.GetByID(ctx, w.BookingID)
	if err != nil || !strings.EqualFold(b.Reference, strings.TrimSpace(reference)) {
		return nil, nil, apperr.NotFound("warranty", ErrWarrantyNotFound)
	}
	return w, b, nil
}

// ExpireDue marks active warranties past their expiry date as expired.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.warranties.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("warranties expired", "count", n)
	}
	return n, nil
}

// newCode builds TTW-YYYYMMDD-XXXX.
func newCode(issued time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("TTW-%s-%s", issued.Format("20060102"), strings.ToUpper(id.String()[:4]))
}
