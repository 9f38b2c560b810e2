package pricing

import (
	"context"

	"doorstep/internal/domain"
)

type deviceResolver interface {
	Resolve(ctx context.Context, deviceType, brand, rawModel string) (*domain.DeviceModel, error)
}

type catalogSource interface {
	GetServiceBySlug(ctx context.Context, slug, deviceType string) (*domain.Service, error)
	ListActivePricing(ctx context.Context, deviceModelID, serviceID int64) ([]domain.PricingRecord, error)
	ListActiveLocations(ctx context.Context) ([]domain.ServiceLocation, error)
}

type pricingAdmin interface {
	SetPricingActive(ctx context.Context, ids []int64, active bool) (int64, error)
}
