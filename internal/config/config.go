package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// CORS_ALLOWED_ORIGINS=https://book.example.ca,https://admin.example.ca
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	// Extra model tokens that mark a distinct variant, e.g. "neo,turbo".
	DeviceVariantQualifiers []string `envconfig:"DEVICE_VARIANT_QUALIFIERS"`
	// DB
	DatabaseURL string        `envconfig:"DATABASE_URL" default:"doorstep.db"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"3s"`
	// Auth
	JWTSecret         string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"12h"`
	AdminEmail        string        `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	// Stripe
	StripeSecretKey     string        `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeTimeout       time.Duration `envconfig:"STRIPE_TIMEOUT" default:"15s"`
	PublicBaseURL       string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:4321"`
	CheckoutTTL         time.Duration `envconfig:"CHECKOUT_TTL" default:"30m"`
	// Pricing
	PriceDeviationThreshold float64       `envconfig:"PRICE_DEVIATION_THRESHOLD" default:"0.10"`
	PricingReferenceFile    string        `envconfig:"PRICING_REFERENCE_FILE"`
	PriceCacheTTL           time.Duration `envconfig:"PRICE_CACHE_TTL" default:"5m"`
	// Notifications
	RabbitMQURL    string        `envconfig:"RABBITMQ_URL"`
	NotifyExchange string        `envconfig:"NOTIFY_EXCHANGE" default:"notifications"`
	NotifyTimeout  time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	// Ops
	OTelEndpoint          string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	WarrantySweepSchedule string `envconfig:"WARRANTY_SWEEP_SCHEDULE" default:"@daily"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if cfg.PriceDeviationThreshold <= 0 {
		return errors.New("PRICE_DEVIATION_THRESHOLD must be > 0")
	}
	if cfg.CheckoutTTL < 30*time.Minute || cfg.CheckoutTTL > 24*time.Hour {
		return errors.New("CHECKOUT_TTL must be between 30m and 24h")
	}
	for name, d := range map[string]time.Duration{
		"DB_TIMEOUT":     cfg.DBTimeout,
		"STRIPE_TIMEOUT": cfg.StripeTimeout,
		"NOTIFY_TIMEOUT": cfg.NotifyTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}

	if cfg.IsProdLike() {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return errors.New("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
			return errors.New("in prod/release STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
