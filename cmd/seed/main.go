package main

import (
	"log/slog"
	"os"

	"doorstep/internal/config"
	"doorstep/internal/database"
	"doorstep/internal/domain"
	"doorstep/internal/modules/auth"
	"doorstep/internal/modules/pricing"
	"doorstep/internal/repository"

	"gorm.io/gorm"
)

type modelSeed struct {
	deviceType string
	brand      string
	names      []string
}

var models = []modelSeed{
	{"mobile", "Apple", []string{"iPhone 13", "iPhone 13 Pro", "iPhone 14", "iPhone 14 Pro Max", "iPhone 15"}},
	{"mobile", "Samsung", []string{"Galaxy S22", "Galaxy S22 Ultra", "Galaxy S23", "Galaxy A54"}},
	{"mobile", "Google", []string{"Pixel 7", "Pixel 7 Pro", "Pixel 8"}},
	{"laptop", "Apple", []string{"MacBook Air M1", "MacBook Air M2", "MacBook Pro 14"}},
	{"laptop", "Dell", []string{"XPS 13", "XPS 15", "Inspiron 15"}},
	{"laptop", "Lenovo", []string{"ThinkPad X1 Carbon", "ThinkPad T14"}},
	{"tablet", "Apple", []string{"iPad 10", "iPad Air", "iPad Pro 11"}},
	{"tablet", "Samsung", []string{"Galaxy Tab S8", "Galaxy Tab S9"}},
}

var locations = []domain.ServiceLocation{
	{CityName: "Vancouver", PostalCodePrefixes: "V5K,V5L,V5M,V5N,V5P,V5R,V5S,V5T,V5V,V5W,V5X,V5Y,V5Z,V6A,V6B,V6C,V6E,V6G,V6H,V6J,V6K,V6L,V6M,V6N,V6P,V6R,V6S,V6T,V6Z", IsActive: true},
	{CityName: "Burnaby", PostalCodePrefixes: "V5A,V5B,V5C,V5E,V5G,V5H,V5J", IsActive: true},
	{CityName: "Richmond", PostalCodePrefixes: "V6V,V6W,V6X,V6Y,V7A,V7B,V7C,V7E", PriceAdjustmentPercentage: 5, IsActive: true},
	{CityName: "Surrey", PostalCodePrefixes: "V3R,V3S,V3T,V3V,V3W,V3X,V4A,V4N", PriceAdjustmentPercentage: 10, IsActive: true},
	{CityName: "Calgary", PostalCodePrefixes: "T2A,T2B,T2C,T2E,T2G,T2H,T2J,T2K,T2L,T2M,T2N,T2P,T2R,T2S,T2T,T2V,T2W,T2X,T2Y,T2Z,T3A,T3B", PriceAdjustmentPercentage: 5, IsActive: true},
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(db); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return seed(tx, log) }); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("seed complete")
}

func seed(tx *gorm.DB, log *slog.Logger) error {
	// cleanup in foreign key order
	log.Info("cleaning old catalog data")
	for _, table := range []string{"dynamic_pricing", "device_models", "services", "service_locations", "technicians"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}

	// ================== SERVICES ==================
	ref := pricing.DefaultReference()
	services := map[string][]domain.Service{}
	for deviceType, prices := range ref.Prices {
		for slug := range prices {
			svc := domain.Service{
				Slug:               slug,
				DeviceType:         deviceType,
				Name:               serviceName(slug),
				WarrantyPeriodDays: warrantyDays(slug),
				IsActive:           true,
			}
			if err := tx.Create(&svc).Error; err != nil {
				return err
			}
			services[deviceType] = append(services[deviceType], svc)
		}
	}
	log.Info("services created", "device_types", len(services))

	// ================== MODELS + PRICING ==================
	var priced int
	for _, m := range models {
		for i, name := range m.names {
			model := domain.DeviceModel{DeviceType: m.deviceType, Brand: m.brand, Name: name, IsActive: true}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
			for _, svc := range services[m.deviceType] {
				// newer models in each list cost a little more
				base := ref.Price(m.deviceType, svc.Slug) * (1 + 0.02*float64(i))
				row := domain.PricingRecord{
					DeviceModelID: model.ID,
					ServiceID:     svc.ID,
					Tier:          domain.TierStandard,
					BasePrice:     base,
					IsActive:      true,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				priced++
			}
		}
	}
	log.Info("pricing created", "rows", priced)

	// ================== LOCATIONS ==================
	for i := range locations {
		if err := tx.Create(&locations[i]).Error; err != nil {
			return err
		}
	}
	log.Info("locations created", "count", len(locations))

	// ================== TECHNICIANS ==================
	hash, err := auth.HashPassword("tech12345")
	if err != nil {
		return err
	}
	for _, t := range []domain.Technician{
		{Email: "sam@doorstep.local", Name: "Sam Chen", Phone: "+1 604 555 0101"},
		{Email: "priya@doorstep.local", Name: "Priya Singh", Phone: "+1 604 555 0102"},
	} {
		t.PasswordHash = hash
		t.IsActive = true
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		log.Info("technician created", "email", t.Email)
	}
	return nil
}

func serviceName(slug string) string {
	words := []rune(slug)
	upper := true
	for i, r := range words {
		if r == '-' {
			words[i] = ' '
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			words[i] = r - 'a' + 'A'
		}
		upper = false
	}
	return string(words)
}

func warrantyDays(slug string) int {
	switch slug {
	case "screen-replacement", "battery-replacement":
		return 180
	case "software-repair", "virus-removal", "other":
		return 30
	default:
		return domain.DefaultWarrantyPeriodDays
	}
}
