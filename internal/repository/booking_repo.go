package repository

import (
	"context"
	"time"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	Reference          string     `gorm:"column:reference;type:varchar(40);uniqueIndex;not null"`
	CustomerName       string     `gorm:"column:customer_name"`
	CustomerEmail      string     `gorm:"column:customer_email;index"`
	CustomerPhone      string     `gorm:"column:customer_phone"`
	DeviceType         string     `gorm:"column:device_type"`
	Brand              string     `gorm:"column:brand"`
	Model              string     `gorm:"column:model"`
	ServiceID          int64      `gorm:"column:service_id"`
	PricingTier        string     `gorm:"column:pricing_tier"`
	Status             string     `gorm:"column:status;index"`
	PaymentMode        string     `gorm:"column:payment_mode"`
	PaymentStatus      string     `gorm:"column:payment_status"`
	QuotedPrice        float64    `gorm:"column:quoted_price"`
	FinalPrice         *float64   `gorm:"column:final_price"`
	TechnicianID       *int64     `gorm:"column:technician_id;index"`
	Address            string     `gorm:"column:address"`
	City               string     `gorm:"column:city"`
	Province           string     `gorm:"column:province"`
	PostalCode         string     `gorm:"column:postal_code"`
	ScheduledDate      string     `gorm:"column:scheduled_date"`
	TimeSlot           string     `gorm:"column:time_slot"`
	Notes              *string    `gorm:"column:notes;type:text"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	AssignedAt         *time.Time `gorm:"column:assigned_at"`
	StartedAt          *time.Time `gorm:"column:started_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func optional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:                 m.ID,
		Reference:          m.Reference,
		CustomerName:       m.CustomerName,
		CustomerEmail:      m.CustomerEmail,
		CustomerPhone:      m.CustomerPhone,
		DeviceType:         m.DeviceType,
		Brand:              m.Brand,
		Model:              m.Model,
		ServiceID:          m.ServiceID,
		PricingTier:        domain.PricingTier(m.PricingTier),
		Status:             domain.BookingStatus(m.Status),
		PaymentMode:        domain.PaymentMode(m.PaymentMode),
		PaymentStatus:      domain.PaymentStatus(m.PaymentStatus),
		QuotedPrice:        m.QuotedPrice,
		FinalPrice:         m.FinalPrice,
		TechnicianID:       m.TechnicianID,
		Address:            m.Address,
		City:               m.City,
		Province:           m.Province,
		PostalCode:         m.PostalCode,
		ScheduledDate:      m.ScheduledDate,
		TimeSlot:           m.TimeSlot,
		Notes:              optional(m.Notes),
		CancellationReason: optional(m.CancellationReason),
		AssignedAt:         m.AssignedAt,
		StartedAt:          m.StartedAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:                 b.ID,
		Reference:          b.Reference,
		CustomerName:       b.CustomerName,
		CustomerEmail:      b.CustomerEmail,
		CustomerPhone:      b.CustomerPhone,
		DeviceType:         b.DeviceType,
		Brand:              b.Brand,
		Model:              b.Model,
		ServiceID:          b.ServiceID,
		PricingTier:        string(b.PricingTier),
		Status:             string(b.Status),
		PaymentMode:        string(b.PaymentMode),
		PaymentStatus:      string(b.PaymentStatus),
		QuotedPrice:        b.QuotedPrice,
		FinalPrice:         b.FinalPrice,
		TechnicianID:       b.TechnicianID,
		Address:            b.Address,
		City:               b.City,
		Province:           b.Province,
		PostalCode:         b.PostalCode,
		ScheduledDate:      b.ScheduledDate,
		TimeSlot:           b.TimeSlot,
		Notes:              nullable(b.Notes),
		CancellationReason: nullable(b.CancellationReason),
		AssignedAt:         b.AssignedAt,
		StartedAt:          b.StartedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus, limit int) ([]domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

func (r *BookingRepository) ListByTechnician(ctx context.Context, technicianID int64, limit int) ([]domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).
		Where("technician_id = ?", technicianID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

// Claim assigns a pending, unassigned booking to a technician in a single
// conditional update. It returns false when another caller got there first.
func (r *BookingRepository) Claim(ctx context.Context, id, technicianID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status = ? AND technician_id IS NULL", id, string(domain.BookingPending)).
		Updates(map[string]interface{}{
			"technician_id": technicianID,
			"status":        string(domain.BookingAssigned),
			"assigned_at":   at,
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Transition is a guarded status change: the row is updated only while its
// status is one of from (and, when technicianID is set, it belongs to that
// technician). The extra columns are written in the same statement.
type Transition struct {
	From         []domain.BookingStatus
	To           domain.BookingStatus
	TechnicianID *int64
	Set          map[string]interface{}
}

func (r *BookingRepository) Transition(ctx context.Context, id int64, t Transition, at time.Time) (bool, error) {
	from := make([]string, 0, len(t.From))
	for _, s := range t.From {
		from = append(from, string(s))
	}

	updates := map[string]interface{}{
		"status":     string(t.To),
		"updated_at": at,
	}
	for k, v := range t.Set {
		updates[k] = v
	}

	q := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ? AND status IN ?", id, from)
	if t.TechnicianID != nil {
		q = q.Where("technician_id = ?", *t.TechnicianID)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateDetails rewrites customer-editable fields while the booking is still
// pending or assigned.
func (r *BookingRepository) UpdateDetails(ctx context.Context, id int64, fields map[string]interface{}, at time.Time) (bool, error) {
	updates := map[string]interface{}{"updated_at": at}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status IN ?", id, []string{string(domain.BookingPending), string(domain.BookingAssigned)}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetPaymentStatus is the only write path the payment side has on bookings.
// With a non-empty from list the update is conditional on the current status.
func (r *BookingRepository) SetPaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id)
	if len(from) > 0 {
		states := make([]string, 0, len(from))
		for _, s := range from {
			states = append(states, string(s))
		}
		q = q.Where("payment_status IN ?", states)
	}
	res := q.Updates(map[string]interface{}{
		"payment_status": string(to),
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
