// Package admin serves the read-only back-office views.
package admin

import (
	"context"
	"errors"
	"strings"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/money"
	"doorstep/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	bookings      BookingReader
	payments      PaymentReader
	notifications NotificationReader
	warranties    WarrantyReader
	stats         StatsReader
}

func NewService(bookings BookingReader, payments PaymentReader, notifications NotificationReader, warranties WarrantyReader, stats StatsReader) *Service {
	return &Service{
		bookings:      bookings,
		payments:      payments,
		notifications: notifications,
		warranties:    warranties,
		stats:         stats,
	}
}

func parseStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == "" {
		return domain.BookingPending, nil
	}
	switch status {
	case domain.BookingPending, domain.BookingAssigned, domain.BookingInProgress, domain.BookingCompleted, domain.BookingCancelled:
		return status, nil
	}
	return "", ErrUnknownStatus
}

func (s *Service) ListBookings(ctx context.Context, status string, limit int) ([]domain.Booking, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, apperr.Validation("status must be one of pending, assigned, in-progress, completed, cancelled", err)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.bookings.ListByStatus(ctx, st, limit)
	if err != nil {
		return nil, apperr.Upstream("list bookings", err)
	}
	return rows, nil
}

func (s *Service) BookingDetail(ctx context.Context, reference string) (*BookingDetail, error) {
	b, err := s.bookings.GetByReference(ctx, strings.TrimSpace(reference))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("booking", ErrBookingNotFound)
	}
	if err != nil {
		return nil, apperr.Upstream("load booking", err)
	}

	payments, err := s.payments.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, apperr.Upstream("list payments", err)
	}
	notifications, err := s.notifications.ListByReference(ctx, b.Reference)
	if err != nil {
		return nil, apperr.Upstream("list notifications", err)
	}

	out := &BookingDetail{Booking: b, Payments: payments, Notifications: notifications}
	w, err := s.warranties.GetByBookingID(ctx, b.ID)
	switch {
	case err == nil:
		out.Warranty = w
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Upstream("load warranty", err)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.stats.BookingsByStatus(ctx)
	if err != nil {
		return nil, apperr.Upstream("booking stats", err)
	}
	byPayment, err := s.stats.BookingsByPaymentStatus(ctx)
	if err != nil {
		return nil, apperr.Upstream("payment stats", err)
	}
	collected, err := s.stats.NetCollected(ctx)
	if err != nil {
		return nil, apperr.Upstream("revenue", err)
	}
	return &Stats{
		BookingsByStatus:        byStatus,
		BookingsByPaymentStatus: byPayment,
		NetCollected:            money.Round2(collected),
	}, nil
}
