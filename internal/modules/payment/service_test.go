package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/testdb"
	"doorstep/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const validSignature = "t=1,v1=valid"

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error {
	args := m.Called(ctx, to, kind, data)
	return args.Error(0)
}

type fakeGateway struct {
	mu         sync.Mutex
	customers  map[string]*Customer
	created    int
	checkouts  []CheckoutParams
	refunds    []RefundParams
	refundErr  error
	onRefund   func()
	sessions   map[string]*CheckoutSession
	session    *CheckoutSession
	sessionErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{customers: map[string]*Customer{}, sessions: map[string]*CheckoutSession{}}
}

func (g *fakeGateway) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.customers[id]; ok {
		return c, nil
	}
	return nil, ErrCustomerNotFound
}

func (g *fakeGateway) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, ErrCustomerNotFound
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	c := &Customer{ID: fmt.Sprintf("cus_new_%d", g.created), Email: p.Email}
	g.customers[c.ID] = c
	return c, nil
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkouts = append(g.checkouts, p)
	id := fmt.Sprintf("cs_test_%d", len(g.checkouts))
	var total int64
	for _, l := range p.Lines {
		total += l.AmountCents
	}
	sess := &CheckoutSession{
		ID: id, URL: "https://checkout.example/" + id, Status: "open", PaymentStatus: "unpaid",
		AmountTotal: total, Metadata: p.Metadata, ExpiresAt: p.ExpiresAt.Unix(),
	}
	g.sessions[id] = sess
	out := *sess
	return &out, nil
}

func (g *fakeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	if g.session != nil {
		return g.session, nil
	}
	if sess, ok := g.sessions[id]; ok {
		out := *sess
		return &out, nil
	}
	return nil, errors.New("no such checkout session")
}

func (g *fakeGateway) expire(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Status = "expired"
}

func (g *fakeGateway) CreateRefund(ctx context.Context, p RefundParams) (*Refund, error) {
	g.mu.Lock()
	g.refunds = append(g.refunds, p)
	n, refundErr, hook := len(g.refunds), g.refundErr, g.onRefund
	g.mu.Unlock()
	if refundErr != nil {
		return nil, refundErr
	}
	if hook != nil {
		hook()
	}
	return &Refund{ID: fmt.Sprintf("re_%d", n), AmountCents: p.AmountCents, Status: "succeeded"}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if signature != validSignature {
		return nil, ErrInvalidSignature
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	gateway  *fakeGateway
	notifier *MockNotifier
	bookings *repository.BookingRepository
	payments *repository.PaymentRepository
}

var (
	fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	refSeq   atomic.Int64
)

func setup(t *testing.T) *fixture {
	db := testdb.Open(t)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	gw := newFakeGateway()
	notifier := new(MockNotifier)

	svc := NewService(Deps{
		Bookings:  bookings,
		Payments:  payments,
		Events:    repository.NewEventLedgerRepository(db),
		Customers: repository.NewCustomerRepository(db),
		Gateway:   gw,
		Notifier:  notifier,
	}, Options{
		PublicBaseURL: "https://doorstep.example/",
		CheckoutTTL:   30 * time.Minute,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	svc.now = func() time.Time { return fixedNow }

	return &fixture{db: db, svc: svc, gateway: gw, notifier: notifier, bookings: bookings, payments: payments}
}

func (f *fixture) booking(t *testing.T, mode domain.PaymentMode, status domain.PaymentStatus) *domain.Booking {
	b := &domain.Booking{
		Reference:     fmt.Sprintf("TTR-%06d-001", refSeq.Add(1)),
		CustomerName:  "Ana Ruiz",
		CustomerEmail: "ana@example.com",
		CustomerPhone: "604-555-0199",
		DeviceType:    "laptop",
		ServiceID:     1,
		PricingTier:   domain.TierStandard,
		Status:        domain.BookingCompleted,
		PaymentMode:   mode,
		PaymentStatus: status,
		QuotedPrice:   100,
		Province:      "BC",
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func (f *fixture) capturedPayment(t *testing.T, b *domain.Booking, amount float64) *domain.Payment {
	pi := "pi_captured_" + b.Reference
	p := &domain.Payment{
		BookingID:             b.ID,
		Method:                domain.PaymentMethodStripe,
		Type:                  domain.PaymentTypeFull,
		Amount:                amount,
		Currency:              "CAD",
		StripePaymentIntentID: &pi,
		Status:                domain.PaymentRecordCompleted,
		PaidAt:                &fixedNow,
	}
	require.NoError(t, f.payments.Create(context.Background(), p))
	return p
}

func (f *fixture) bookingStatus(t *testing.T, id int64) domain.PaymentStatus {
	b, err := f.bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b.PaymentStatus
}

func (f *fixture) deliver(t *testing.T, ev Event) error {
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return f.svc.HandleWebhook(context.Background(), payload, validSignature)
}

func float(v float64) *float64 { return &v }

func TestStartCheckout_CreatesSessionWithTaxLines(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)

	resp, err := f.svc.StartCheckout(context.Background(), b.Reference)

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.Equal(t, 112.0, resp.Tax.Total)
	assert.Equal(t, fixedNow.Add(30*time.Minute), resp.ExpiresAt)

	require.Len(t, f.gateway.checkouts, 1)
	params := f.gateway.checkouts[0]
	assert.Equal(t, []CheckoutLine{
		{Label: "Device repair " + b.Reference, AmountCents: 10000},
		{Label: "GST (5%)", AmountCents: 500},
		{Label: "BC PST (7%)", AmountCents: 700},
	}, params.Lines)
	assert.Equal(t, b.Reference, params.Metadata["booking_ref"])
	assert.Equal(t, fmt.Sprint(b.ID), params.Metadata["booking_id"])
	assert.Equal(t, fmt.Sprintf("checkout-%d-0-11200-%d", b.ID, fixedNow.Add(30*time.Minute).Unix()), params.IdempotencyKey)
	assert.Equal(t, "CAD", params.Currency)
	assert.Equal(t, "https://doorstep.example/booking/"+b.Reference, params.CancelURL)

	p, err := f.payments.GetBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordPending, p.Status)
	assert.Equal(t, 112.0, p.Amount)
	assert.Equal(t, domain.PaymentPending, f.bookingStatus(t, b.ID))
}

func TestStartCheckout_ReusesOpenSession(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)

	first, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)
	second, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Len(t, f.gateway.checkouts, 1)

	f.gateway.expire(first.SessionID)
	third, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_2", third.SessionID)
	require.Len(t, f.gateway.checkouts, 2)
	assert.NotEqual(t, f.gateway.checkouts[0].IdempotencyKey, f.gateway.checkouts[1].IdempotencyKey)
}

func TestStartCheckout_SameKeyRaceSharesSession(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	sid := "cs_test_1"
	require.NoError(t, f.payments.Create(context.Background(), &domain.Payment{
		BookingID: b.ID, Method: domain.PaymentMethodStripe, Type: domain.PaymentTypeFull,
		Amount: 112, Currency: "CAD", StripeCheckoutSessionID: &sid, Status: domain.PaymentRecordExpired,
	}))

	resp, err := f.svc.StartCheckout(context.Background(), b.Reference)

	require.NoError(t, err)
	assert.Equal(t, sid, resp.SessionID)
	rows, err := f.payments.ListByBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStartCheckout_RoundsExpiryUpToMinute(t *testing.T) {
	f := setup(t)
	f.svc.now = func() time.Time { return fixedNow.Add(20 * time.Second) }
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)

	resp, err := f.svc.StartCheckout(context.Background(), b.Reference)

	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(31*time.Minute), resp.ExpiresAt)
}

func TestStartCheckout_RejectsPayLaterAndPaidBookings(t *testing.T) {
	f := setup(t)
	later := f.booking(t, domain.PaymentModePayLater, domain.PaymentUnpaid)
	paid := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)

	_, err := f.svc.StartCheckout(context.Background(), later.Reference)
	assert.ErrorIs(t, err, ErrNotUpfront)

	_, err = f.svc.StartCheckout(context.Background(), paid.Reference)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.StartCheckout(context.Background(), "TTR-999999-999")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, f.gateway.checkouts)
}

func TestResolveCustomer(t *testing.T) {
	t.Run("creates once and then reuses the stored id", func(t *testing.T) {
		f := setup(t)
		b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)

		_, err := f.svc.StartCheckout(context.Background(), b.Reference)
		require.NoError(t, err)
		f.gateway.expire("cs_test_1")
		_, err = f.svc.StartCheckout(context.Background(), b.Reference)
		require.NoError(t, err)

		assert.Equal(t, 1, f.gateway.created)
		assert.Equal(t, "cus_new_1", f.gateway.checkouts[1].CustomerID)
	})

	t.Run("stale stored id falls back to email lookup", func(t *testing.T) {
		f := setup(t)
		b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
		require.NoError(t, f.db.Create(&domain.CustomerProfile{Email: "ana@example.com", StripeCustomerID: "cus_deleted"}).Error)
		f.gateway.customers["cus_existing"] = &Customer{ID: "cus_existing", Email: "ana@example.com"}

		_, err := f.svc.StartCheckout(context.Background(), b.Reference)

		require.NoError(t, err)
		assert.Zero(t, f.gateway.created)
		assert.Equal(t, "cus_existing", f.gateway.checkouts[0].CustomerID)
		profile, err := repository.NewCustomerRepository(f.db).GetByEmail(context.Background(), "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", profile.StripeCustomerID)
	})
}

func TestRefund_PartialThenFull(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	p := f.capturedPayment(t, b, 100)

	first, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(50)})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, first.PaymentStatus)
	assert.Equal(t, 50.0, first.RefundedTotal)
	assert.True(t, first.Provisional)
	assert.Equal(t, domain.PaymentPartiallyRefunded, f.bookingStatus(t, b.ID))

	second, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(50)})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, second.PaymentStatus)
	assert.Equal(t, domain.PaymentRefunded, f.bookingStatus(t, b.ID))

	require.Len(t, f.gateway.refunds, 2)
	assert.Equal(t, *p.StripePaymentIntentID, f.gateway.refunds[0].PaymentIntentID)
	assert.Equal(t, int64(5000), f.gateway.refunds[1].AmountCents)

	_, err = f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference})
	assert.ErrorIs(t, err, ErrNothingToRefund)
}

func TestRefund_WebhookAppliedBeforeLocalWriteStands(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	p := f.capturedPayment(t, b, 100)
	pi := *p.StripePaymentIntentID
	f.gateway.onRefund = func() {
		f.gateway.onRefund = nil
		require.NoError(t, f.deliver(t, Event{ID: "evt_early", Type: EventChargeRefunded, Charge: &Charge{
			ID: "ch_1", PaymentIntentID: pi, AmountCents: 10000, AmountRefundedCents: 5000,
		}}))
	}

	res, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(50)})

	require.NoError(t, err)
	assert.Equal(t, 50.0, res.RefundedTotal)
	assert.False(t, res.Provisional)
	assert.Equal(t, domain.PaymentPartiallyRefunded, res.PaymentStatus)
	stored, err := f.payments.GetByPaymentIntentID(context.Background(), pi)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.RefundedAmount)
	assert.Equal(t, domain.PaymentRecordCompleted, stored.Status)
	assert.False(t, stored.Provisional)
	assert.Equal(t, domain.PaymentPartiallyRefunded, f.bookingStatus(t, b.ID))

	rest, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference})
	require.NoError(t, err)
	assert.Equal(t, 50.0, rest.Amount)
	assert.Equal(t, domain.PaymentRefunded, f.bookingStatus(t, b.ID))
}

func TestRefund_DefaultsToRemainingAmount(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	f.capturedPayment(t, b, 112)

	res, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference})

	require.NoError(t, err)
	assert.Equal(t, 112.0, res.Amount)
	assert.Equal(t, domain.PaymentRefunded, res.PaymentStatus)
}

func TestRefund_RejectsAmountAboveRemaining(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	f.capturedPayment(t, b, 100)

	_, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(100.01)})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.gateway.refunds)
}

func TestRefund_GatewayFailureIsNotRetried(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	p := f.capturedPayment(t, b, 100)
	f.gateway.refundErr = errors.New("card_declined")

	_, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(20)})

	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Len(t, f.gateway.refunds, 1)
	stored, err := f.payments.GetByPaymentIntentID(context.Background(), *p.StripePaymentIntentID)
	require.NoError(t, err)
	assert.Zero(t, stored.RefundedAmount)
	assert.Equal(t, domain.PaymentCompleted, f.bookingStatus(t, b.ID))
}

func TestRefund_CashPaymentIsNotRefundableOnline(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModePayLater, domain.PaymentUnpaid)
	f.notifier.On("Send", mock.Anything, mock.Anything, domain.NotifyPaymentReceipt, mock.Anything).Return(nil)
	_, err := f.svc.MarkPaid(context.Background(), b.Reference)
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference})

	assert.ErrorIs(t, err, ErrNothingToRefund)
}

func TestWebhook_SessionCompletedAppliesOnce(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)
	f.notifier.On("Send", mock.Anything, "ana@example.com", domain.NotifyPaymentReceipt, mock.MatchedBy(func(d map[string]any) bool {
		return d["booking_reference"] == b.Reference && d["amount"] == 112.0
	})).Return(nil).Once()

	ev := Event{ID: "evt_1", Type: EventCheckoutCompleted, Session: &CheckoutSession{
		ID: "cs_test_1", Status: "complete", PaymentStatus: "paid", PaymentIntentID: "pi_1", AmountTotal: 11200,
	}}
	require.NoError(t, f.deliver(t, ev))
	require.NoError(t, f.deliver(t, ev))

	redelivered := ev
	redelivered.ID = "evt_2"
	require.NoError(t, f.deliver(t, redelivered))

	p, err := f.payments.GetBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordCompleted, p.Status)
	require.NotNil(t, p.StripePaymentIntentID)
	assert.Equal(t, "pi_1", *p.StripePaymentIntentID)
	assert.Equal(t, domain.PaymentCompleted, f.bookingStatus(t, b.ID))

	var processed int64
	require.NoError(t, f.db.Model(&domain.ProcessedEvent{}).Where("processed = ?", true).Count(&processed).Error)
	assert.Equal(t, int64(2), processed)
	f.notifier.AssertExpectations(t)
}

func TestWebhook_UnpaidSessionLeavesPaymentPending(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)

	require.NoError(t, f.deliver(t, Event{ID: "evt_async", Type: EventCheckoutCompleted, Session: &CheckoutSession{
		ID: "cs_test_1", Status: "complete", PaymentStatus: "unpaid",
	}}))

	assert.Equal(t, domain.PaymentPending, f.bookingStatus(t, b.ID))
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_AdoptsUnknownSessionFromMetadata(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentPending)
	f.notifier.On("Send", mock.Anything, mock.Anything, domain.NotifyPaymentReceipt, mock.Anything).Return(nil)

	require.NoError(t, f.deliver(t, Event{ID: "evt_3", Type: EventCheckoutCompleted, Session: &CheckoutSession{
		ID: "cs_elsewhere", PaymentStatus: "paid", PaymentIntentID: "pi_3", AmountTotal: 5600,
		Metadata: map[string]string{"booking_id": fmt.Sprint(b.ID), "booking_ref": b.Reference},
	}}))

	p, err := f.payments.GetBySessionID(context.Background(), "cs_elsewhere")
	require.NoError(t, err)
	assert.Equal(t, 56.0, p.Amount)
	assert.Equal(t, domain.PaymentCompleted, f.bookingStatus(t, b.ID))
}

func TestWebhook_RefundOverridesProvisionalUpdate(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	p := f.capturedPayment(t, b, 100)
	pi := *p.StripePaymentIntentID

	_, err := f.svc.Refund(context.Background(), RefundRequest{Reference: b.Reference, Amount: float(50)})
	require.NoError(t, err)

	require.NoError(t, f.deliver(t, Event{ID: "evt_r1", Type: EventChargeRefunded, Charge: &Charge{
		ID: "ch_1", PaymentIntentID: pi, AmountCents: 10000, AmountRefundedCents: 3000,
	}}))

	stored, err := f.payments.GetByPaymentIntentID(context.Background(), pi)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.RefundedAmount)
	assert.False(t, stored.Provisional)
	assert.Equal(t, domain.PaymentPartiallyRefunded, f.bookingStatus(t, b.ID))

	require.NoError(t, f.deliver(t, Event{ID: "evt_r2", Type: EventChargeRefunded, Charge: &Charge{
		ID: "ch_1", PaymentIntentID: pi, AmountCents: 10000, AmountRefundedCents: 10000, Refunded: true,
	}}))
	assert.Equal(t, domain.PaymentRefunded, f.bookingStatus(t, b.ID))

	// An older event arriving late never moves a confirmed row backwards.
	require.NoError(t, f.deliver(t, Event{ID: "evt_r0", Type: EventChargeRefunded, Charge: &Charge{
		ID: "ch_1", PaymentIntentID: pi, AmountCents: 10000, AmountRefundedCents: 3000,
	}}))
	stored, err = f.payments.GetByPaymentIntentID(context.Background(), pi)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.RefundedAmount)
	assert.Equal(t, domain.PaymentRecordRefunded, stored.Status)
	assert.Equal(t, domain.PaymentRefunded, f.bookingStatus(t, b.ID))
}

func TestWebhook_RefundReplayIsNoop(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentCompleted)
	p := f.capturedPayment(t, b, 100)
	ev := Event{ID: "evt_r", Type: EventChargeRefunded, Charge: &Charge{
		ID: "ch_2", PaymentIntentID: *p.StripePaymentIntentID, AmountCents: 10000, AmountRefundedCents: 2500,
	}}

	require.NoError(t, f.deliver(t, ev))
	first, err := f.payments.GetByPaymentIntentID(context.Background(), *p.StripePaymentIntentID)
	require.NoError(t, err)
	require.NoError(t, f.deliver(t, ev))
	second, err := f.payments.GetByPaymentIntentID(context.Background(), *p.StripePaymentIntentID)
	require.NoError(t, err)

	assert.Equal(t, 25.0, second.RefundedAmount)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, domain.PaymentPartiallyRefunded, f.bookingStatus(t, b.ID))
}

func TestWebhook_SessionExpiredResetsBooking(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)

	require.NoError(t, f.deliver(t, Event{ID: "evt_x", Type: EventCheckoutExpired, Session: &CheckoutSession{ID: "cs_test_1", Status: "expired"}}))

	p, err := f.payments.GetBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordExpired, p.Status)
	assert.Equal(t, domain.PaymentUnpaid, f.bookingStatus(t, b.ID))
}

func TestWebhook_SessionExpiredKeepsNewerCheckout(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)
	f.gateway.expire("cs_test_1")
	_, err = f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)

	require.NoError(t, f.deliver(t, Event{ID: "evt_x1", Type: EventCheckoutExpired, Session: &CheckoutSession{ID: "cs_test_1"}}))

	assert.Equal(t, domain.PaymentPending, f.bookingStatus(t, b.ID))
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := setup(t)

	err := f.svc.HandleWebhook(context.Background(), []byte(`{"id":"evt_1"}`), "t=1,v1=forged")

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	var count int64
	require.NoError(t, f.db.Model(&domain.ProcessedEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWebhook_ProcessingFailureIsRecorded(t *testing.T) {
	f := setup(t)

	err := f.deliver(t, Event{ID: "evt_orphan", Type: EventChargeRefunded, Charge: &Charge{ID: "ch_9", PaymentIntentID: "pi_unknown", AmountRefundedCents: 100}})

	require.NoError(t, err)
	var ev domain.ProcessedEvent
	require.NoError(t, f.db.Where("stripe_event_id = ?", "evt_orphan").First(&ev).Error)
	assert.False(t, ev.Processed)
	assert.Contains(t, ev.ProcessingError, "pi_unknown")
}

func TestMarkPaid(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModePayLater, domain.PaymentUnpaid)
	f.notifier.On("Send", mock.Anything, "ana@example.com", domain.NotifyPaymentReceipt, mock.Anything).Return(nil).Once()

	p, err := f.svc.MarkPaid(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCash, p.Method)
	assert.Equal(t, 112.0, p.Amount)
	assert.Equal(t, domain.PaymentCompleted, f.bookingStatus(t, b.ID))

	_, err = f.svc.MarkPaid(context.Background(), b.Reference)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	upfront := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err = f.svc.MarkPaid(context.Background(), upfront.Reference)
	assert.ErrorIs(t, err, ErrNotPayLater)
	f.notifier.AssertExpectations(t)
}

func TestMarkPaid_FailedInsertLeavesBookingUnpaid(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModePayLater, domain.PaymentUnpaid)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Payment{}))

	_, err := f.svc.MarkPaid(context.Background(), b.Reference)

	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, domain.PaymentUnpaid, f.bookingStatus(t, b.ID))

	require.NoError(t, f.db.AutoMigrate(&domain.Payment{}))
	f.notifier.On("Send", mock.Anything, "ana@example.com", domain.NotifyPaymentReceipt, mock.Anything).Return(nil).Once()
	p, err := f.svc.MarkPaid(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, domain.PaymentCompleted, f.bookingStatus(t, b.ID))
	f.notifier.AssertExpectations(t)
}

func TestVerifySession_IsReadOnly(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModeUpfront, domain.PaymentUnpaid)
	_, err := f.svc.StartCheckout(context.Background(), b.Reference)
	require.NoError(t, err)
	f.gateway.session = &CheckoutSession{ID: "cs_test_1", Status: "complete", PaymentStatus: "paid", AmountTotal: 11200, Currency: "cad"}

	status, err := f.svc.VerifySession(context.Background(), "cs_test_1")

	require.NoError(t, err)
	assert.True(t, status.Paid)
	assert.Equal(t, 112.0, status.AmountTotal)
	assert.Equal(t, "CAD", status.Currency)
	assert.Equal(t, b.Reference, status.BookingReference)
	assert.Equal(t, domain.PaymentPending, status.BookingPayment)

	p, err := f.payments.GetBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordPending, p.Status)

	_, err = f.svc.VerifySession(context.Background(), " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSendPaymentLink_NotifiesCustomer(t *testing.T) {
	f := setup(t)
	b := f.booking(t, domain.PaymentModePayLater, domain.PaymentUnpaid)
	f.notifier.On("Send", mock.Anything, "ana@example.com", domain.NotifyPaymentLink, mock.MatchedBy(func(d map[string]any) bool {
		return d["payment_url"] == "https://checkout.example/cs_test_1" && d["amount"] == 112.0
	})).Return(errors.New("smtp down")).Once()

	resp, err := f.svc.SendPaymentLink(context.Background(), b.Reference)

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	f.notifier.AssertExpectations(t)
}
