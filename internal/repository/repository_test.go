package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/testdb"
	"doorstep/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(ref string) *domain.Booking {
	return &domain.Booking{
		Reference:     ref,
		CustomerName:  "Dana Lee",
		CustomerEmail: "dana@example.com",
		DeviceType:    "phone",
		Brand:         "Apple",
		Model:         "iPhone 13",
		PricingTier:   domain.PricingTier("standard"),
		Status:        domain.BookingPending,
		PaymentMode:   domain.PaymentModePayLater,
		PaymentStatus: domain.PaymentUnpaid,
		QuotedPrice:   149,
		Province:      "BC",
		ScheduledDate: "2026-11-02",
		TimeSlot:      "morning",
	}
}

func TestBookingClaimIsExclusive(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	b := newBooking("TT-20261018-AAAA")
	require.NoError(t, repo.Create(ctx, b))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []int64
	)
	for tech := int64(1); tech <= 8; tech++ {
		wg.Add(1)
		go func(tech int64) {
			defer wg.Done()
			ok, err := repo.Claim(ctx, b.ID, tech, time.Now().UTC())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins = append(wins, tech)
				mu.Unlock()
			}
		}(tech)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingAssigned, got.Status)
	require.NotNil(t, got.TechnicianID)
	assert.Equal(t, wins[0], *got.TechnicianID)
	assert.NotNil(t, got.AssignedAt)
}

func TestBookingTransitionGuards(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	b := newBooking("TT-20261018-BBBB")
	require.NoError(t, repo.Create(ctx, b))
	ok, err := repo.Claim(ctx, b.ID, 3, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	other := int64(4)
	ok, err = repo.Transition(ctx, b.ID, repository.Transition{
		From:         []domain.BookingStatus{domain.BookingAssigned},
		To:           domain.BookingInProgress,
		TechnicianID: &other,
	}, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "another technician cannot start the job")

	owner := int64(3)
	now := time.Now().UTC()
	ok, err = repo.Transition(ctx, b.ID, repository.Transition{
		From:         []domain.BookingStatus{domain.BookingAssigned},
		To:           domain.BookingInProgress,
		TechnicianID: &owner,
		Set:          map[string]interface{}{"started_at": now},
	}, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateDetails(ctx, b.ID, map[string]interface{}{"time_slot": "evening"}, now)
	require.NoError(t, err)
	assert.False(t, ok, "details are frozen once work started")

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingInProgress, got.Status)
	assert.Equal(t, "morning", got.TimeSlot)
	assert.NotNil(t, got.StartedAt)
}

func TestBookingReferenceIsUnique(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("TT-20261018-CCCC")))
	err := repo.Create(ctx, newBooking("TT-20261018-CCCC"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByReference(ctx, "TT-00000000-ZZZZ")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetPaymentStatusRespectsFrom(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	b := newBooking("TT-20261018-DDDD")
	require.NoError(t, repo.Create(ctx, b))

	ok, err := repo.SetPaymentStatus(ctx, b.ID, []domain.PaymentStatus{domain.PaymentPending}, domain.PaymentUnpaid)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SetPaymentStatus(ctx, b.ID, nil, domain.PaymentCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := repo.GetByID(ctx, b.ID)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)
}

func TestPaymentCreateSettled(t *testing.T) {
	db := testdb.Open(t)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	ctx := context.Background()

	b := newBooking("TT-20261018-EEEE")
	require.NoError(t, bookings.Create(ctx, b))
	from := []domain.PaymentStatus{domain.PaymentUnpaid, domain.PaymentPending}
	cash := func() *domain.Payment {
		return &domain.Payment{BookingID: b.ID, Method: domain.PaymentMethodCash, Type: domain.PaymentTypeFull, Amount: 166.88, Currency: "CAD", Status: domain.PaymentRecordCompleted}
	}

	ok, err := payments.CreateSettled(ctx, cash(), from, domain.PaymentCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = payments.CreateSettled(ctx, cash(), from, domain.PaymentCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := payments.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	got, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)
}

func TestPaymentCreateSettledRollsBackBooking(t *testing.T) {
	db := testdb.Open(t)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	ctx := context.Background()

	b := newBooking("TT-20261018-FFFF")
	require.NoError(t, bookings.Create(ctx, b))
	require.NoError(t, db.Migrator().DropTable(&domain.Payment{}))

	_, err := payments.CreateSettled(ctx, &domain.Payment{BookingID: b.ID, Method: domain.PaymentMethodCash, Type: domain.PaymentTypeFull, Amount: 10, Status: domain.PaymentRecordCompleted},
		[]domain.PaymentStatus{domain.PaymentUnpaid}, domain.PaymentCompleted)
	assert.Error(t, err)

	got, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentUnpaid, got.PaymentStatus)
}

func TestEventLedgerRecordIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	ledger := repository.NewEventLedgerRepository(db)
	ctx := context.Background()

	first, err := ledger.Record(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	assert.False(t, first.Processed)

	require.NoError(t, ledger.MarkProcessed(ctx, "evt_1", time.Now().UTC()))

	again, err := ledger.Record(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Processed)

	require.NoError(t, ledger.MarkFailed(ctx, "evt_2", "no such row"))
	var count int64
	require.NoError(t, db.Model(&domain.ProcessedEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentMutate(t *testing.T) {
	db := testdb.Open(t)
	payments := repository.NewPaymentRepository(db)
	ctx := context.Background()

	session := "cs_test_1"
	p := &domain.Payment{
		BookingID:               9,
		Method:                  domain.PaymentMethodStripe,
		Type:                    domain.PaymentTypeFull,
		Amount:                  112,
		Currency:                "CAD",
		StripeCheckoutSessionID: &session,
		Status:                  domain.PaymentRecordPending,
	}
	require.NoError(t, payments.Create(ctx, p))

	_, changed, err := payments.Mutate(ctx, p.ID, func(*domain.Payment) bool { return false })
	require.NoError(t, err)
	assert.False(t, changed)

	out, changed, err := payments.Mutate(ctx, p.ID, func(row *domain.Payment) bool {
		row.Status = domain.PaymentRecordCompleted
		return true
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.PaymentRecordCompleted, out.Status)

	got, err := payments.GetBySessionID(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordCompleted, got.Status)

	settled, err := payments.GetSettledForBooking(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, p.ID, settled.ID)

	_, _, err = payments.Mutate(ctx, 999, func(*domain.Payment) bool { return true })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCustomerUpsert(t *testing.T) {
	db := testdb.Open(t)
	customers := repository.NewCustomerRepository(db)
	ctx := context.Background()

	require.NoError(t, customers.Upsert(ctx, &domain.CustomerProfile{Email: "dana@example.com", Name: "Dana"}))
	require.NoError(t, customers.Upsert(ctx, &domain.CustomerProfile{Email: "dana@example.com", Name: "Dana", StripeCustomerID: "cus_1"}))

	got, err := customers.GetByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", got.StripeCustomerID)
}

func TestWarrantyExpireDue(t *testing.T) {
	db := testdb.Open(t)
	warranties := repository.NewWarrantyRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	for i, expiry := range []time.Time{now.AddDate(0, 0, -1), now.AddDate(0, 0, 30)} {
		require.NoError(t, warranties.Create(ctx, &domain.Warranty{
			BookingID:    int64(i + 1),
			Code:         fmt.Sprintf("TTW-20260101-000%d", i),
			IssueDate:    expiry.AddDate(0, 0, -180),
			ExpiryDate:   expiry,
			DurationDays: 180,
			Status:       domain.WarrantyActive,
		}))
	}

	n, err := warranties.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w, err := warranties.GetByBookingID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.WarrantyExpired, w.Status)

	err = warranties.Create(ctx, &domain.Warranty{BookingID: 2, Code: "TTW-20260101-0009", IssueDate: now, ExpiryDate: now, DurationDays: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
