package repository

import (
	"context"
	"strings"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDeviceModels returns active models for a device type and brand, compared case-insensitively.
func (r *CatalogRepository) ListDeviceModels(ctx context.Context, deviceType, brand string) ([]domain.DeviceModel, error) {
	var models []domain.DeviceModel
	err := r.db.WithContext(ctx).
		Where("LOWER(device_type) = ? AND LOWER(brand) = ? AND is_active = ?",
			strings.ToLower(strings.TrimSpace(deviceType)),
			strings.ToLower(strings.TrimSpace(brand)),
			true).
		Find(&models).Error
	return models, err
}

func (r *CatalogRepository) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	var s domain.Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *CatalogRepository) GetServiceBySlug(ctx context.Context, slug, deviceType string) (*domain.Service, error) {
	var s domain.Service
	err := r.db.WithContext(ctx).
		Where("slug = ? AND LOWER(device_type) = ?", strings.ToLower(strings.TrimSpace(slug)), strings.ToLower(strings.TrimSpace(deviceType))).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *CatalogRepository) ListActivePricing(ctx context.Context, deviceModelID, serviceID int64) ([]domain.PricingRecord, error) {
	var rows []domain.PricingRecord
	err := r.db.WithContext(ctx).
		Where("device_model_id = ? AND service_id = ? AND is_active = ?", deviceModelID, serviceID, true).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// SetPricingActive flips is_active on the given pricing rows and reports how many changed.
func (r *CatalogRepository) SetPricingActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.PricingRecord{}).
		Where("id IN ?", ids).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

func (r *CatalogRepository) ListActiveLocations(ctx context.Context) ([]domain.ServiceLocation, error) {
	var rows []domain.ServiceLocation
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error
	return rows, err
}
