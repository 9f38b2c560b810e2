package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/money"
	"doorstep/internal/pkg/validator"
	"doorstep/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("doorstep/payment")

// refundEpsilon absorbs float noise when comparing dollar amounts.
const refundEpsilon = 0.005

type Deps struct {
	Bookings  bookingStore
	Payments  paymentStore
	Events    eventLedger
	Customers customerStore
	Gateway   Gateway
	Notifier  Notifier
}

type Options struct {
	PublicBaseURL string
	CheckoutTTL   time.Duration
	Currency      string
	Logger        *slog.Logger
}

type Service struct {
	bookings  bookingStore
	payments  paymentStore
	events    eventLedger
	customers customerStore
	gateway   Gateway
	notifier  Notifier

	baseURL  string
	ttl      time.Duration
	currency string
	log      *slog.Logger
	now      func() time.Time
}

func NewService(d Deps, opts Options) *Service {
	s := &Service{
		bookings:  d.Bookings,
		payments:  d.Payments,
		events:    d.Events,
		customers: d.Customers,
		gateway:   d.Gateway,
		notifier:  d.Notifier,
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
		ttl:       opts.CheckoutTTL,
		currency:  strings.ToUpper(opts.Currency),
		log:       opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}
	if s.currency == "" {
		s.currency = "CAD"
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// StartCheckout opens a checkout session for an upfront booking.
func (s *Service) StartCheckout(ctx context.Context, reference string) (*CheckoutResponse, error) {
	b, err := s.loadBooking(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b.PaymentMode != domain.PaymentModeUpfront {
		return nil, apperr.Conflict("checkout is only available for upfront bookings", ErrNotUpfront)
	}
	return s.checkout(ctx, b)
}

// CreatePaymentLink returns a fresh checkout URL for the booking.
func (s *Service) CreatePaymentLink(ctx context.Context, b *domain.Booking) (string, error) {
	resp, err := s.checkout(ctx, b)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// SendPaymentLink creates a checkout link and mails it to the customer.
func (s *Service) SendPaymentLink(ctx context.Context, reference string) (*CheckoutResponse, error) {
	b, err := s.loadBooking(ctx, reference)
	if err != nil {
		return nil, err
	}
	resp, err := s.checkout(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Send(ctx, b.CustomerEmail, domain.NotifyPaymentLink, map[string]any{
		"booking_reference": b.Reference,
		"customer_name":     b.CustomerName,
		"amount":            resp.Tax.Total,
		"currency":          s.currency,
		"payment_url":       resp.URL,
		"expires_at":        resp.ExpiresAt.Format(time.RFC3339),
	}); err != nil {
		s.log.Warn("payment link notification failed", "booking_ref", b.Reference, "error", err)
	}
	return resp, nil
}

func (s *Service) checkout(ctx context.Context, b *domain.Booking) (*CheckoutResponse, error) {
	if s.gateway == nil {
		return nil, apperr.Upstream("payment gateway", ErrNotConfigured)
	}
	if b.Status == domain.BookingCancelled {
		return nil, apperr.Conflict("booking is cancelled", ErrNotPayable)
	}
	if b.PaymentStatus.Settled() {
		return nil, apperr.Conflict("booking", ErrAlreadyPaid)
	}

	tax := CalculateTax(b.ChargeablePrice(), b.Province)
	rows, err := s.payments.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, apperr.Upstream("load payments", err)
	}
	if resp := s.openSession(ctx, b, rows, tax); resp != nil {
		return resp, nil
	}

	customerID, err := s.resolveCustomer(ctx, b)
	if err != nil {
		s.log.Error("customer resolution failed", "booking_ref", b.Reference, "error", err)
		return nil, apperr.Upstream("payment gateway", err)
	}

	lines := []CheckoutLine{{Label: fmt.Sprintf("Device repair %s", b.Reference), AmountCents: money.ToCents(tax.Subtotal)}}
	for _, li := range tax.LineItems {
		if li.Amount > 0 {
			lines = append(lines, CheckoutLine{Label: li.Label, AmountCents: money.ToCents(li.Amount)})
		}
	}

	expires := ceilMinute(s.now().Add(s.ttl))
	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		Currency:   s.currency,
		Lines:      lines,
		SuccessURL: s.baseURL + "/booking/confirmation?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/booking/" + b.Reference,
		ExpiresAt:  expires,
		Metadata: map[string]string{
			"booking_id":  strconv.FormatInt(b.ID, 10),
			"booking_ref": b.Reference,
		},
		IdempotencyKey: fmt.Sprintf("checkout-%d-%d-%d-%d", b.ID, len(rows), money.ToCents(tax.Total), expires.Unix()),
	})
	if err != nil {
		s.log.Error("checkout session creation failed", "booking_ref", b.Reference, "error", err)
		return nil, apperr.Upstream("payment gateway", err)
	}

	sessionID := sess.ID
	p := &domain.Payment{
		BookingID:               b.ID,
		Method:                  domain.PaymentMethodStripe,
		Type:                    domain.PaymentTypeFull,
		Amount:                  tax.Total,
		Currency:                s.currency,
		StripeCheckoutSessionID: &sessionID,
		Status:                  domain.PaymentRecordPending,
	}
	err = s.payments.Create(ctx, p)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent request with the same idempotency key recorded it first.
		return &CheckoutResponse{SessionID: sessionID, URL: sess.URL, ExpiresAt: expires, Tax: tax}, nil
	}
	if err != nil {
		return nil, apperr.Upstream("record payment", err)
	}
	if _, err := s.bookings.SetPaymentStatus(ctx, b.ID, []domain.PaymentStatus{domain.PaymentUnpaid}, domain.PaymentPending); err != nil {
		return nil, apperr.Upstream("update booking", err)
	}

	s.log.Info("checkout session created", "booking_ref", b.Reference, "session_id", sessionID, "amount", tax.Total)
	return &CheckoutResponse{SessionID: sessionID, URL: sess.URL, ExpiresAt: expires, Tax: tax}, nil
}

// openSession returns the booking's pending checkout when the gateway still
// has it open for the same total, so repeated requests share one session.
func (s *Service) openSession(ctx context.Context, b *domain.Booking, rows []domain.Payment, tax TaxBreakdown) *CheckoutResponse {
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row.Status != domain.PaymentRecordPending || row.StripeCheckoutSessionID == nil {
			continue
		}
		sess, err := s.gateway.GetCheckoutSession(ctx, *row.StripeCheckoutSessionID)
		if err != nil {
			s.log.Warn("pending checkout session not readable", "booking_ref", b.Reference, "session_id", *row.StripeCheckoutSessionID, "error", err)
			return nil
		}
		if sess.Status != "open" || sess.URL == "" || sess.AmountTotal != money.ToCents(tax.Total) {
			return nil
		}
		expires := row.CreatedAt.Add(s.ttl)
		if sess.ExpiresAt > 0 {
			expires = time.Unix(sess.ExpiresAt, 0).UTC()
		}
		s.log.Info("checkout session reused", "booking_ref", b.Reference, "session_id", sess.ID)
		return &CheckoutResponse{SessionID: sess.ID, URL: sess.URL, ExpiresAt: expires, Tax: tax}
	}
	return nil
}

// ceilMinute rounds up to the next whole minute so retries within the same
// minute send identical session parameters.
func ceilMinute(t time.Time) time.Time {
	if r := t.Truncate(time.Minute); !r.Equal(t) {
		return r.Add(time.Minute)
	}
	return t
}

// resolveCustomer reuses the stored gateway customer when it still exists,
// then looks the email up at the gateway, and only then creates one.
func (s *Service) resolveCustomer(ctx context.Context, b *domain.Booking) (string, error) {
	profile, err := s.customers.GetByEmail(ctx, b.CustomerEmail)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if profile != nil && profile.StripeCustomerID != "" {
		c, err := s.gateway.GetCustomer(ctx, profile.StripeCustomerID)
		if err == nil {
			return c.ID, nil
		}
		if !errors.Is(err, ErrCustomerNotFound) {
			return "", err
		}
	}

	c, err := s.gateway.FindCustomerByEmail(ctx, b.CustomerEmail)
	if errors.Is(err, ErrCustomerNotFound) {
		c, err = s.gateway.CreateCustomer(ctx, CustomerParams{Email: b.CustomerEmail, Name: b.CustomerName, Phone: b.CustomerPhone})
	}
	if err != nil {
		return "", err
	}

	if err := s.customers.Upsert(ctx, &domain.CustomerProfile{
		Email:            b.CustomerEmail,
		Name:             b.CustomerName,
		Phone:            b.CustomerPhone,
		StripeCustomerID: c.ID,
	}); err != nil {
		s.log.Warn("customer profile not saved", "booking_ref", b.Reference, "error", err)
	}
	return c.ID, nil
}

// VerifySession reports the gateway's view of a checkout session. It never
// writes: the webhook is what settles the booking.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperr.Validation("session_id is required", nil)
	}
	if s.gateway == nil {
		return nil, apperr.Upstream("payment gateway", ErrNotConfigured)
	}
	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Upstream("payment gateway", err)
	}

	out := &SessionStatus{
		SessionID:        sess.ID,
		Status:           sess.Status,
		PaymentStatus:    sess.PaymentStatus,
		Paid:             sess.PaymentStatus == "paid",
		AmountTotal:      money.FromCents(sess.AmountTotal),
		Currency:         strings.ToUpper(sess.Currency),
		BookingReference: sess.Metadata["booking_ref"],
	}
	if p, err := s.payments.GetBySessionID(ctx, sessionID); err == nil {
		if b, err := s.bookings.GetByID(ctx, p.BookingID); err == nil {
			out.BookingReference = b.Reference
			out.BookingPayment = b.PaymentStatus
		}
	}
	return out, nil
}

// Refund sends a full or partial refund to the gateway. It is never retried
// here. The local row is raised to the refunded total this call implies and
// marked provisional until the charge.refunded webhook confirms it. When the
// webhook got there first its total stands.
func (s *Service) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs), ErrRefundAmount)
	}
	b, err := s.loadBooking(ctx, req.Reference)
	if err != nil {
		return nil, err
	}

	p, err := s.payments.GetSettledForBooking(ctx, b.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Conflict("booking has no captured payment", ErrNothingToRefund)
	}
	if err != nil {
		return nil, apperr.Upstream("load payment", err)
	}
	if p.Method != domain.PaymentMethodStripe || p.StripePaymentIntentID == nil {
		return nil, apperr.Conflict("payment was not taken online", ErrNothingToRefund)
	}
	remaining := money.Round2(p.Refundable())
	if p.Status == domain.PaymentRecordRefunded || remaining <= 0 {
		return nil, apperr.Conflict("payment is fully refunded", ErrNothingToRefund)
	}

	amount := remaining
	if req.Amount != nil {
		amount = money.Round2(*req.Amount)
	}
	if amount <= 0 || amount > remaining+refundEpsilon {
		return nil, apperr.Validation(fmt.Sprintf("refund amount must be between 0.01 and %.2f", remaining), ErrRefundAmount)
	}
	if s.gateway == nil {
		return nil, apperr.Upstream("payment gateway", ErrNotConfigured)
	}

	refund, err := s.gateway.CreateRefund(ctx, RefundParams{
		PaymentIntentID: *p.StripePaymentIntentID,
		AmountCents:     money.ToCents(amount),
		Reason:          req.Reason,
	})
	if err != nil {
		s.log.Error("refund failed", "booking_ref", b.Reference, "amount", amount, "error", err)
		return nil, apperr.Upstream("payment gateway", err)
	}

	target := money.Round2(p.RefundedAmount + amount)
	updated, _, err := s.payments.Mutate(ctx, p.ID, func(row *domain.Payment) bool {
		if row.RefundedAmount >= target-refundEpsilon {
			return false
		}
		row.RefundedAmount = target
		if row.RefundedAmount >= row.Amount-refundEpsilon {
			row.RefundedAmount = row.Amount
			row.Status = domain.PaymentRecordRefunded
		}
		row.Provisional = true
		return true
	})
	if err != nil {
		s.log.Error("refund sent but not recorded", "booking_ref", b.Reference, "refund_id", refund.ID, "error", err)
		return nil, apperr.Upstream("record refund", err)
	}

	booking, err := s.syncBooking(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.log.Info("refund created", "booking_ref", b.Reference, "refund_id", refund.ID, "amount", amount, "payment_status", booking.PaymentStatus)
	return &RefundResult{
		RefundID:       refund.ID,
		Amount:         amount,
		RefundedTotal:  updated.RefundedAmount,
		PaymentStatus:  booking.PaymentStatus,
		Provisional:    updated.Provisional,
		BookingPayment: updated,
	}, nil
}

// MarkPaid records an in-person payment for a pay-later booking.
func (s *Service) MarkPaid(ctx context.Context, reference string) (*domain.Payment, error) {
	b, err := s.loadBooking(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b.PaymentMode != domain.PaymentModePayLater {
		return nil, apperr.Conflict("upfront bookings are settled by the payment gateway", ErrNotPayLater)
	}
	if b.Status == domain.BookingCancelled {
		return nil, apperr.Conflict("booking is cancelled", ErrNotPayable)
	}

	tax := CalculateTax(b.ChargeablePrice(), b.Province)
	paidAt := s.now()
	p := &domain.Payment{
		BookingID: b.ID,
		Method:    domain.PaymentMethodCash,
		Type:      domain.PaymentTypeFull,
		Amount:    tax.Total,
		Currency:  s.currency,
		Status:    domain.PaymentRecordCompleted,
		PaidAt:    &paidAt,
	}
	ok, err := s.payments.CreateSettled(ctx, p, []domain.PaymentStatus{domain.PaymentUnpaid, domain.PaymentPending}, domain.PaymentCompleted)
	if err != nil {
		s.log.Error("cash payment not recorded", "booking_ref", b.Reference, "error", err)
		return nil, apperr.Upstream("record payment", err)
	}
	if !ok {
		return nil, apperr.Conflict("booking", ErrAlreadyPaid)
	}

	s.log.Info("booking marked paid", "booking_ref", b.Reference, "amount", p.Amount)
	s.sendReceipt(ctx, b, p)
	return p, nil
}

// HandleWebhook verifies and applies one gateway event. Deliveries are at
// least once: events already in the ledger are acknowledged and skipped.
// Processing failures are recorded on the ledger row and not returned, so
// only a bad signature or a ledger failure surfaces to the caller.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperr.Upstream("payment gateway", ErrNotConfigured)
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("webhook rejected", "error", err)
		return apperr.Validation("invalid webhook", ErrInvalidSignature)
	}

	ctx, span := tracer.Start(ctx, "payment.webhook", trace.WithAttributes(
		attribute.String("webhook.event_id", ev.ID),
		attribute.String("webhook.event_type", ev.Type),
	))
	defer span.End()

	rec, err := s.events.Record(ctx, ev.ID, ev.Type)
	if err != nil {
		span.RecordError(err)
		return apperr.Upstream("record webhook event", err)
	}
	if rec.Processed {
		s.log.Info("webhook already processed", "event_id", ev.ID, "event_type", ev.Type)
		return nil
	}

	if err := s.apply(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook processing failed")
		s.log.Error("webhook processing failed", "event_id", ev.ID, "event_type", ev.Type, "error", err)
		if merr := s.events.MarkFailed(ctx, ev.ID, err.Error()); merr != nil {
			s.log.Warn("webhook failure not recorded", "event_id", ev.ID, "error", merr)
		}
		return nil
	}
	if err := s.events.MarkProcessed(ctx, ev.ID, s.now()); err != nil {
		s.log.Warn("webhook not marked processed", "event_id", ev.ID, "error", err)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.onSessionCompleted(ctx, ev.Session)
	case EventCheckoutExpired:
		return s.onSessionExpired(ctx, ev.Session)
	case EventChargeRefunded:
		return s.onChargeRefunded(ctx, ev.Charge)
	default:
		s.log.Debug("webhook ignored", "event_id", ev.ID, "event_type", ev.Type)
		return nil
	}
}

func (s *Service) onSessionCompleted(ctx context.Context, sess *CheckoutSession) error {
	if sess == nil {
		return errors.New("event has no checkout session")
	}
	p, err := s.payments.GetBySessionID(ctx, sess.ID)
	if errors.Is(err, repository.ErrNotFound) {
		p, err = s.adoptSession(ctx, sess)
	}
	if err != nil {
		return err
	}
	if sess.PaymentStatus != "paid" && sess.PaymentStatus != "no_payment_required" {
		s.log.Info("checkout completed without payment", "session_id", sess.ID, "payment_status", sess.PaymentStatus)
		return nil
	}

	paidAt := s.now()
	updated, changed, err := s.payments.Mutate(ctx, p.ID, func(row *domain.Payment) bool {
		if row.Status != domain.PaymentRecordPending && row.Status != domain.PaymentRecordExpired {
			return false
		}
		row.Status = domain.PaymentRecordCompleted
		row.PaidAt = &paidAt
		if sess.PaymentIntentID != "" {
			pi := sess.PaymentIntentID
			row.StripePaymentIntentID = &pi
		}
		if sess.AmountTotal > 0 {
			row.Amount = money.FromCents(sess.AmountTotal)
		}
		row.Provisional = false
		return true
	})
	if err != nil {
		return err
	}

	b, err := s.syncBooking(ctx, updated)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("payment completed", "booking_ref", b.Reference, "amount", updated.Amount)
		s.sendReceipt(ctx, b, updated)
	}
	return nil
}

// adoptSession records a payment for a session created outside this process,
// using the booking id carried in the session metadata.
func (s *Service) adoptSession(ctx context.Context, sess *CheckoutSession) (*domain.Payment, error) {
	bookingID, err := strconv.ParseInt(sess.Metadata["booking_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unknown checkout session %s", sess.ID)
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	sessionID := sess.ID
	p := &domain.Payment{
		BookingID:               b.ID,
		Method:                  domain.PaymentMethodStripe,
		Type:                    domain.PaymentTypeFull,
		Amount:                  money.FromCents(sess.AmountTotal),
		Currency:                s.currency,
		StripeCheckoutSessionID: &sessionID,
		Status:                  domain.PaymentRecordPending,
	}
	err = s.payments.Create(ctx, p)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.payments.GetBySessionID(ctx, sess.ID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) onSessionExpired(ctx context.Context, sess *CheckoutSession) error {
	if sess == nil {
		return errors.New("event has no checkout session")
	}
	p, err := s.payments.GetBySessionID(ctx, sess.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	updated, _, err := s.payments.Mutate(ctx, p.ID, func(row *domain.Payment) bool {
		if row.Status != domain.PaymentRecordPending {
			return false
		}
		row.Status = domain.PaymentRecordExpired
		return true
	})
	if err != nil {
		return err
	}
	if updated.Status != domain.PaymentRecordExpired {
		return nil
	}

	// Another open or settled payment keeps the booking where it is.
	rows, err := s.payments.ListByBooking(ctx, updated.BookingID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.ID != updated.ID && r.Status != domain.PaymentRecordExpired {
			return nil
		}
	}
	ok, err := s.bookings.SetPaymentStatus(ctx, updated.BookingID, []domain.PaymentStatus{domain.PaymentPending}, domain.PaymentUnpaid)
	if err != nil {
		return err
	}
	if ok {
		s.log.Info("checkout session expired", "booking_id", updated.BookingID, "session_id", sess.ID)
	}
	return nil
}

// onChargeRefunded applies the gateway's cumulative refunded amount. The
// webhook wins over a provisional local update; a confirmed row only ever
// moves forward.
func (s *Service) onChargeRefunded(ctx context.Context, ch *Charge) error {
	if ch == nil || ch.PaymentIntentID == "" {
		return errors.New("event has no charge payment intent")
	}
	p, err := s.payments.GetByPaymentIntentID(ctx, ch.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("payment for intent %s: %w", ch.PaymentIntentID, err)
	}

	refunded := money.FromCents(ch.AmountRefundedCents)
	now := s.now()
	updated, changed, err := s.payments.Mutate(ctx, p.ID, func(row *domain.Payment) bool {
		if !row.Provisional && refunded <= row.RefundedAmount+refundEpsilon {
			return false
		}
		row.RefundedAmount = refunded
		if ch.Refunded || refunded >= row.Amount-refundEpsilon {
			row.Status = domain.PaymentRecordRefunded
		} else {
			row.Status = domain.PaymentRecordCompleted
		}
		if row.PaidAt == nil {
			row.PaidAt = &now
		}
		row.Provisional = false
		return true
	})
	if err != nil {
		return err
	}

	b, err := s.syncBooking(ctx, updated)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("refund confirmed", "booking_ref", b.Reference, "refunded_total", updated.RefundedAmount, "payment_status", b.PaymentStatus)
	}
	return nil
}

// syncBooking derives the booking payment status from the payment row and
// writes it when it differs. Running it again is harmless, which lets a
// replayed event repair a half-applied one.
func (s *Service) syncBooking(ctx context.Context, p *domain.Payment) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, apperr.Upstream("load booking", err)
	}
	target := bookingStatusFor(p)
	if b.PaymentStatus == target {
		return b, nil
	}
	if _, err := s.bookings.SetPaymentStatus(ctx, b.ID, nil, target); err != nil {
		return nil, apperr.Upstream("update booking", err)
	}
	s.log.Info("booking payment status changed", "booking_ref", b.Reference, "from", b.PaymentStatus, "to", target)
	b.PaymentStatus = target
	return b, nil
}

func bookingStatusFor(p *domain.Payment) domain.PaymentStatus {
	switch p.Status {
	case domain.PaymentRecordRefunded:
		return domain.PaymentRefunded
	case domain.PaymentRecordCompleted:
		if p.RefundedAmount > 0 {
			return domain.PaymentPartiallyRefunded
		}
		return domain.PaymentCompleted
	case domain.PaymentRecordPending:
		return domain.PaymentPending
	default:
		return domain.PaymentUnpaid
	}
}

func (s *Service) sendReceipt(ctx context.Context, b *domain.Booking, p *domain.Payment) {
	data := map[string]any{
		"booking_reference": b.Reference,
		"customer_name":     b.CustomerName,
		"amount":            p.Amount,
		"currency":          p.Currency,
		"method":            string(p.Method),
	}
	if p.PaidAt != nil {
		data["paid_at"] = p.PaidAt.Format(time.RFC3339)
	}
	if err := s.notifier.Send(ctx, b.CustomerEmail, domain.NotifyPaymentReceipt, data); err != nil {
		s.log.Warn("payment receipt notification failed", "booking_ref", b.Reference, "error", err)
	}
}

func (s *Service) loadBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, strings.TrimSpace(reference))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("booking", ErrBookingNotFound)
	}
	if err != nil {
		return nil, apperr.Upstream("load booking", err)
	}
	return b, nil
}
