package repository

import (
	"context"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

// StatsRepository runs the aggregate queries behind the admin dashboard.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type countRow struct {
	Bucket string
	Total  int64
}

func (r *StatsRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Select(column + " AS bucket, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] = row.Total
	}
	return out, nil
}

func (r *StatsRepository) BookingsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "status")
}

func (r *StatsRepository) BookingsByPaymentStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "payment_status")
}

// NetCollected is captured money minus refunds across all payment rows.
func (r *StatsRepository) NetCollected(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("status IN ?", []domain.PaymentRecordStatus{domain.PaymentRecordCompleted, domain.PaymentRecordRefunded}).
		Select("COALESCE(SUM(amount - refunded_amount), 0)").
		Scan(&total).Error
	return total, err
}
