package repository

import (
	"context"
	"time"

	"doorstep/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("stripe_checkout_session_id = ?", sessionID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("stripe_payment_intent_id = ?", paymentIntentID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// CreateSettled inserts a captured payment and moves the booking payment
// status from one of from to to in the same transaction. It reports false and
// writes nothing when the booking is not in one of from.
func (r *PaymentRepository) CreateSettled(ctx context.Context, p *domain.Payment, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error) {
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}
	settled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND payment_status IN ?", p.BookingID, states).
			Updates(map[string]interface{}{
				"payment_status": string(to),
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}
		if err := tx.Create(p).Error; err != nil {
			return translate(err)
		}
		settled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return settled, nil
}

// GetSettledForBooking returns the most recent captured payment of a booking.
func (r *PaymentRepository) GetSettledForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID, []domain.PaymentRecordStatus{domain.PaymentRecordCompleted, domain.PaymentRecordRefunded}).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var rows []domain.Payment
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id ASC").Find(&rows).Error
	return rows, err
}

// Mutate loads the payment row under a row lock and hands it to fn. When fn
// reports a change the whole row is saved in the same transaction.
func (r *PaymentRepository) Mutate(ctx context.Context, id int64, fn func(p *domain.Payment) bool) (*domain.Payment, bool, error) {
	var (
		out     domain.Payment
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, id).Error; err != nil {
			return translate(err)
		}
		if !fn(&out) {
			return nil
		}
		out.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&out).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, changed, nil
}

type EventLedgerRepository struct {
	db *gorm.DB
}

func NewEventLedgerRepository(db *gorm.DB) *EventLedgerRepository {
	return &EventLedgerRepository{db: db}
}

// Record inserts the event if it is new and returns the stored row.
func (r *EventLedgerRepository) Record(ctx context.Context, eventID, eventType string) (*domain.ProcessedEvent, error) {
	ev := domain.ProcessedEvent{StripeEventID: eventID, EventType: eventType}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_event_id"}}, DoNothing: true}).
		Create(&ev).Error
	if err != nil {
		return nil, translate(err)
	}
	var stored domain.ProcessedEvent
	if err := r.db.WithContext(ctx).Where("stripe_event_id = ?", eventID).First(&stored).Error; err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func (r *EventLedgerRepository) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.ProcessedEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"processed":        true,
			"processing_error": "",
			"processed_at":     at,
		}).Error
}

func (r *EventLedgerRepository) MarkFailed(ctx context.Context, eventID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&domain.ProcessedEvent{}).
		Where("stripe_event_id = ?", eventID).
		Update("processing_error", reason).Error
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerProfile, error) {
	var c domain.CustomerProfile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Upsert stores the profile keyed by email.
func (r *CustomerRepository) Upsert(ctx context.Context, c *domain.CustomerProfile) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "stripe_customer_id", "updated_at"}),
		}).
		Create(c).Error
}
