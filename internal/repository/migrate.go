package repository

import (
	"fmt"

	"doorstep/internal/domain"

	"gorm.io/gorm"
)

// Models lists every table owned by the service, leaves first.
func Models() []any {
	return []any{
		&domain.Technician{},
		&domain.Service{},
		&domain.DeviceModel{},
		&domain.PricingRecord{},
		&domain.ServiceLocation{},
		&bookingModel{},
		&domain.RepairCompletion{},
		&domain.Warranty{},
		&domain.Payment{},
		&domain.ProcessedEvent{},
		&domain.CustomerProfile{},
		&domain.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
