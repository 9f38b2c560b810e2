package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/modules/pricing"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/validator"
	"doorstep/internal/repository"

	"github.com/google/uuid"
)

const maxReferenceAttempts = 3

type Service struct {
	bookings    BookingRepository
	completions CompletionRepository
	catalog     ServiceCatalog
	quoter      Quoter
	warranties  WarrantyIssuer
	notifier    Notifier
	linker      PaymentLinker
	jobs        JobPublisher
	log         *slog.Logger
	now         func() time.Time
}

type Deps struct {
	Bookings    BookingRepository
	Completions CompletionRepository
	Catalog     ServiceCatalog
	Quoter      Quoter
	Warranties  WarrantyIssuer
	Notifier    Notifier
	Linker      PaymentLinker
	Jobs        JobPublisher
	Logger      *slog.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		bookings:    d.Bookings,
		completions: d.Completions,
		catalog:     d.Catalog,
		quoter:      d.Quoter,
		warranties:  d.Warranties,
		notifier:    d.Notifier,
		linker:      d.Linker,
		jobs:        d.Jobs,
		log:         d.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// SetPaymentLinker is used when the payment side is built after bookings.
func (s *Service) SetPaymentLinker(l PaymentLinker) { s.linker = l }

func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs), ErrValidation)
	}
	tier, err := pricing.ParseTier(req.Tier)
	if err != nil {
		return nil, apperr.Validation("tier", err)
	}

	svc, err := s.catalog.GetServiceBySlug(ctx, req.Service, req.DeviceType)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !svc.IsActive) {
		return nil, apperr.Validation(fmt.Sprintf("service %q is not offered for %s", req.Service, req.DeviceType), ErrUnknownService)
	}
	if err != nil {
		return nil, apperr.Upstream("load service", err)
	}

	quote, err := s.quoter.Calculate(ctx, pricing.QuoteInput{
		DeviceType: req.DeviceType,
		Brand:      req.Brand,
		Model:      req.Model,
		Service:    req.Service,
		Tier:       string(tier.Tier),
		PostalCode: req.PostalCode,
	})
	if err != nil {
		return nil, err
	}

	province := strings.ToUpper(strings.TrimSpace(req.Province))
	if province == "" {
		province = "BC"
	}

	b := &domain.Booking{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		DeviceType:    req.DeviceType,
		Brand:         strings.TrimSpace(req.Brand),
		Model:         strings.TrimSpace(req.Model),
		ServiceID:     svc.ID,
		PricingTier:   tier.Tier,
		Status:        domain.BookingPending,
		PaymentMode:   domain.PaymentMode(req.PaymentMode),
		PaymentStatus: domain.PaymentUnpaid,
		QuotedPrice:   quote.FinalPrice,
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		Province:      province,
		PostalCode:    strings.ToUpper(strings.TrimSpace(req.PostalCode)),
		ScheduledDate: req.ScheduledDate,
		TimeSlot:      req.TimeSlot,
		Notes:         req.Notes,
	}

	for attempt := 1; ; attempt++ {
		b.Reference = newReference(s.now())
		err = s.bookings.Create(ctx, b)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == maxReferenceAttempts {
			return nil, apperr.Upstream("create booking", err)
		}
	}

	s.log.Info("booking created",
		"booking_ref", b.Reference, "device_type", b.DeviceType, "tier", b.PricingTier,
		"payment_mode", b.PaymentMode, "quoted_price", b.QuotedPrice, "fallback_used", quote.FallbackUsed)
	s.publish(EventJobCreated, b)
	return b, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, strings.TrimSpace(reference))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("booking", ErrBookingNotFound)
	}
	if err != nil {
		return nil, apperr.Upstream("load booking", err)
	}
	return b, nil
}

// UpdateBooking edits contact and schedule fields while the job has not started.
func (s *Service) UpdateBooking(ctx context.Context, reference string, req UpdateBookingRequest) (*domain.Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs), ErrValidation)
	}
	b, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("customer_phone", req.CustomerPhone)
	set("address", req.Address)
	set("city", req.City)
	set("scheduled_date", req.ScheduledDate)
	set("time_slot", req.TimeSlot)
	set("notes", req.Notes)
	if len(fields) == 0 {
		return b, nil
	}

	ok, err := s.bookings.UpdateDetails(ctx, b.ID, fields, s.now())
	if err != nil {
		return nil, apperr.Upstream("update booking", err)
	}
	if !ok {
		return nil, apperr.Conflict(fmt.Sprintf("booking is %s", b.Status), ErrNotEditable)
	}
	s.log.Info("booking updated", "booking_ref", b.Reference, "fields", len(fields))
	return s.reload(ctx, b.ID)
}

func (s *Service) ListAvailable(ctx context.Context, limit int) ([]domain.Booking, error) {
	rows, err := s.bookings.ListByStatus(ctx, domain.BookingPending, clampLimit(limit))
	if err != nil {
		return nil, apperr.Upstream("list bookings", err)
	}
	return rows, nil
}

func (s *Service) ListForTechnician(ctx context.Context, technicianID int64, limit int) ([]domain.Booking, error) {
	rows, err := s.bookings.ListByTechnician(ctx, technicianID, clampLimit(limit))
	if err != nil {
		return nil, apperr.Upstream("list bookings", err)
	}
	return rows, nil
}

// Claim assigns a pending booking to the technician. Exactly one of several
// concurrent claims wins; the others get ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, reference string, technicianID int64) (*domain.Booking, error) {
	b, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.Claim(ctx, b.ID, technicianID, s.now())
	if err != nil {
		return nil, apperr.Upstream("claim booking", err)
	}
	if !ok {
		s.log.Info("booking claim rejected", "booking_ref", b.Reference, "technician_id", technicianID)
		return nil, apperr.Conflict("booking", ErrAlreadyClaimed)
	}

	claimed, err := s.reload(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking claimed", "booking_ref", b.Reference, "technician_id", technicianID)
	s.publish(EventJobClaimed, claimed)
	return claimed, nil
}

func (s *Service) Start(ctx context.Context, reference string, technicianID int64) (*domain.Booking, error) {
	b, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(b, technicianID); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.bookings.Transition(ctx, b.ID, repository.Transition{
		From:         []domain.BookingStatus{domain.BookingAssigned},
		To:           domain.BookingInProgress,
		TechnicianID: &technicianID,
		Set:          map[string]interface{}{"started_at": now},
	}, now)
	if err != nil {
		return nil, apperr.Upstream("start booking", err)
	}
	if !ok {
		return nil, apperr.Conflict(fmt.Sprintf("cannot start a %s booking", b.Status), ErrInvalidTransition)
	}
	s.log.Info("booking started", "booking_ref", b.Reference, "technician_id", technicianID)
	return s.reload(ctx, b.ID)
}

// Complete closes an in-progress booking, records the repair and issues the
// warranty. Replaying it for an already completed booking returns the stored
// result and never issues a second warranty.
func (s *Service) Complete(ctx context.Context, reference string, technicianID int64, req CompleteRequest) (*CompletionResult, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs), ErrValidation)
	}
	b, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(b, technicianID); err != nil {
		return nil, err
	}

	if b.Status == domain.BookingCompleted {
		return s.finishCompletion(ctx, b, technicianID, req, false)
	}
	if b.Status != domain.BookingInProgress {
		return nil, apperr.Conflict(fmt.Sprintf("cannot complete a %s booking", b.Status), ErrInvalidTransition)
	}

	finalPrice := b.QuotedPrice
	if req.FinalPrice != nil {
		finalPrice = *req.FinalPrice
	}
	completedAt := s.now()
	if req.CompletedAt != nil && !req.CompletedAt.IsZero() && !req.CompletedAt.After(completedAt) {
		completedAt = req.CompletedAt.UTC()
	}

	ok, err := s.bookings.Transition(ctx, b.ID, repository.Transition{
		From:         []domain.BookingStatus{domain.BookingInProgress},
		To:           domain.BookingCompleted,
		TechnicianID: &technicianID,
		Set: map[string]interface{}{
			"final_price":  finalPrice,
			"completed_at": completedAt,
		},
	}, s.now())
	if err != nil {
		return nil, apperr.Upstream("complete booking", err)
	}

	current, err := s.reload(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if !ok && current.Status != domain.BookingCompleted {
		return nil, apperr.Conflict(fmt.Sprintf("cannot complete a %s booking", current.Status), ErrInvalidTransition)
	}
	return s.finishCompletion(ctx, current, technicianID, req, ok)
}

// finishCompletion runs the idempotent completion side effects. fresh is true
// only for the call that performed the status change.
func (s *Service) finishCompletion(ctx context.Context, b *domain.Booking, technicianID int64, req CompleteRequest, fresh bool) (*CompletionResult, error) {
	completion, err := s.recordCompletion(ctx, b, technicianID, req)
	if err != nil {
		return nil, err
	}

	w, err := s.warranties.IssueIfAbsent(ctx, b.ID)
	if err != nil {
		s.log.Error("warranty issue failed", "booking_ref", b.Reference, "error", err)
		return nil, err
	}

	if fresh {
		s.log.Info("booking completed",
			"booking_ref", b.Reference, "technician_id", technicianID,
			"final_price", b.ChargeablePrice(), "warranty_code", w.Code)
		if b.PaymentMode == domain.PaymentModeUpfront && b.PaymentStatus != domain.PaymentCompleted {
			s.requestPayment(ctx, b)
		}
	} else {
		s.log.Info("booking completion replayed", "booking_ref", b.Reference)
	}

	return &CompletionResult{Booking: b, Completion: completion, Warranty: w}, nil
}

func (s *Service) recordCompletion(ctx context.Context, b *domain.Booking, technicianID int64, req CompleteRequest) (*domain.RepairCompletion, error) {
	existing, err := s.completions.GetByBookingID(ctx, b.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Upstream("load completion", err)
	}

	completedAt := s.now()
	if b.CompletedAt != nil {
		completedAt = *b.CompletedAt
	}
	c := &domain.RepairCompletion{
		BookingID:             b.ID,
		TechnicianID:          technicianID,
		RepairNotes:           req.RepairNotes,
		PartsUsed:             req.PartsUsed,
		RepairDurationMinutes: req.RepairDurationMinutes,
		FinalPrice:            b.ChargeablePrice(),
		CompletedAt:           completedAt,
	}
	if c.PartsUsed == nil {
		c.PartsUsed = []string{}
	}
	err = s.completions.Create(ctx, c)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.completions.GetByBookingID(ctx, b.ID)
	}
	if err != nil {
		return nil, apperr.Upstream("record completion", err)
	}
	return c, nil
}

// requestPayment asks the notifier to send a payment link. Failures are logged
// only: the booking is already completed and an admin can resend the link.
func (s *Service) requestPayment(ctx context.Context, b *domain.Booking) {
	data := map[string]any{
		"booking_reference": b.Reference,
		"customer_name":     b.CustomerName,
		"amount":            b.ChargeablePrice(),
		"currency":          "CAD",
	}
	if s.linker != nil {
		url, err := s.linker.CreatePaymentLink(ctx, b)
		if err != nil {
			s.log.Warn("payment link creation failed", "booking_ref", b.Reference, "error", err)
		} else {
			data["payment_url"] = url
		}
	}
	if err := s.notifier.Send(ctx, b.CustomerEmail, domain.NotifyPaymentLink, data); err != nil {
		s.log.Warn("payment link notification failed", "booking_ref", b.Reference, "error", err)
	}
}

// Cancel moves an active booking to cancelled. Customers must prove the
// booking email; admins may cancel any active booking.
func (s *Service) Cancel(ctx context.Context, reference string, actor Actor, reason string) (*domain.Booking, error) {
	b, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && !strings.EqualFold(strings.TrimSpace(actor.Email), b.CustomerEmail) {
		return nil, apperr.NotFound("booking", ErrBookingNotFound)
	}

	now := s.now()
	ok, err := s.bookings.Transition(ctx, b.ID, repository.Transition{
		From: []domain.BookingStatus{domain.BookingPending, domain.BookingAssigned, domain.BookingInProgress},
		To:   domain.BookingCancelled,
		Set: map[string]interface{}{
			"cancelled_at":        now,
			"cancellation_reason": strings.TrimSpace(reason),
		},
	}, now)
	if err != nil {
		return nil, apperr.Upstream("cancel booking", err)
	}
	if !ok {
		return nil, apperr.Conflict(fmt.Sprintf("cannot cancel a %s booking", b.Status), ErrInvalidTransition)
	}

	cancelled, err := s.reload(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking cancelled", "booking_ref", b.Reference, "by_admin", actor.Admin)
	s.publish(EventJobCancelled, cancelled)
	return cancelled, nil
}

func (s *Service) reload(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("reload booking", err)
	}
	return b, nil
}

func (s *Service) publish(kind string, b *domain.Booking) {
	if s.jobs != nil {
		s.jobs.Publish(jobEvent(kind, b))
	}
}

func ownedBy(b *domain.Booking, technicianID int64) error {
	if b.TechnicianID == nil || *b.TechnicianID != technicianID {
		return apperr.Conflict("booking", ErrNotAssigned)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

// newReference builds TTR-<6 digits of the clock>-<3 random digits>.
func newReference(now time.Time) string {
	id := uuid.New()
	suffix := (int(id[0])<<8 | int(id[1])) % 1000
	return fmt.Sprintf("TTR-%06d-%03d", now.UnixMilli()%1000000, suffix)
}
