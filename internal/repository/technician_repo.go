package repository

import (
	"context"
	"strings"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

type TechnicianRepository struct {
	db *gorm.DB
}

func NewTechnicianRepository(db *gorm.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

func (r *TechnicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	var t domain.Technician
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TechnicianRepository) Create(ctx context.Context, t *domain.Technician) error {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByReference(ctx context.Context, reference string) ([]domain.Notification, error) {
	var rows []domain.Notification
	err := r.db.WithContext(ctx).Where("booking_reference = ?", reference).Order("id ASC").Find(&rows).Error
	return rows, err
}
