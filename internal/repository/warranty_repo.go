package repository

import (
	"context"
	"time"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

type WarrantyRepository struct {
	db *gorm.DB
}

func NewWarrantyRepository(db *gorm.DB) *WarrantyRepository {
	return &WarrantyRepository{db: db}
}

func (r *WarrantyRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Warranty, error) {
	var w domain.Warranty
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *WarrantyRepository) GetByCode(ctx context.Context, code string) (*domain.Warranty, error) {
	var w domain.Warranty
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

// Create fails with ErrDuplicate when the booking already has a warranty.
func (r *WarrantyRepository) Create(ctx context.Context, w *domain.Warranty) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

// ExpireDue moves active warranties past their expiry date to expired.
func (r *WarrantyRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Warranty{}).
		Where("status = ? AND expiry_date < ?", domain.WarrantyActive, now).
		Updates(map[string]interface{}{
			"status":     domain.WarrantyExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.RepairCompletion, error) {
	var c domain.RepairCompletion
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CompletionRepository) Create(ctx context.Context, c *domain.RepairCompletion) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}
