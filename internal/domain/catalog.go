package domain

import "time"

// DeviceModel is a canonical device SKU. Siblings lists other models of the
// same brand whose names share a whole-word prefix with this one.
type DeviceModel struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	DeviceType string    `gorm:"type:varchar(20);index:idx_device_models_type_brand;not null" json:"device_type"`
	Brand      string    `gorm:"type:varchar(80);index:idx_device_models_type_brand;not null" json:"brand"`
	Name       string    `gorm:"type:varchar(160);not null" json:"name"`
	IsActive   bool      `json:"is_active"`
	Siblings   []string  `gorm:"-" json:"siblings,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DeviceModel) TableName() string { return "device_models" }

const DefaultWarrantyPeriodDays = 90

type Service struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	Slug               string    `gorm:"type:varchar(80);uniqueIndex:idx_services_slug_type;not null" json:"slug"`
	DeviceType         string    `gorm:"type:varchar(20);uniqueIndex:idx_services_slug_type;not null" json:"device_type"`
	Name               string    `gorm:"type:varchar(160);not null" json:"name"`
	WarrantyPeriodDays int       `gorm:"default:90" json:"warranty_period_days"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

func (Service) TableName() string { return "services" }

// WarrantyDays falls back to the default period when none is configured.
func (s *Service) WarrantyDays() int {
	if s == nil || s.WarrantyPeriodDays <= 0 {
		return DefaultWarrantyPeriodDays
	}
	return s.WarrantyPeriodDays
}

type PricingTier string

const (
	TierEconomy  PricingTier = "economy"
	TierStandard PricingTier = "standard"
	TierPremium  PricingTier = "premium"
	TierSameDay  PricingTier = "same-day"
)

type PricingRecord struct {
	ID            int64       `gorm:"primaryKey" json:"id"`
	DeviceModelID int64       `gorm:"index:idx_dynamic_pricing_lookup;not null" json:"device_model_id"`
	ServiceID     int64       `gorm:"index:idx_dynamic_pricing_lookup;not null" json:"service_id"`
	Tier          PricingTier `gorm:"type:varchar(20);default:'standard'" json:"tier"`
	BasePrice     float64     `gorm:"not null" json:"base_price"`
	IsActive      bool        `gorm:"index" json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (PricingRecord) TableName() string { return "dynamic_pricing" }

// ServiceLocation is a serviceable region. PostalCodePrefixes holds comma
// separated postal prefixes such as "V5K,V5L". The adjustment is a percentage.
type ServiceLocation struct {
	ID                        int64     `gorm:"primaryKey" json:"id"`
	CityName                  string    `gorm:"type:varchar(120);not null" json:"city_name"`
	PostalCodePrefixes        string    `gorm:"type:text" json:"postal_code_prefixes"`
	PriceAdjustmentPercentage float64   `gorm:"default:0" json:"price_adjustment_percentage"`
	IsActive                  bool      `json:"is_active"`
	CreatedAt                 time.Time `json:"created_at"`
}

func (ServiceLocation) TableName() string { return "service_locations" }
