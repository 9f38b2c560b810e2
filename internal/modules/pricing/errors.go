package pricing

import "errors"

var (
	ErrUnknownTier       = errors.New("unknown pricing tier")
	ErrInvalidQuoteInput = errors.New("invalid quote input")
	ErrEmptySelection    = errors.New("no pricing records selected")
)

// fallback reasons, logged only
const (
	reasonDeviceNotFound  = "device_not_found"
	reasonServiceNotFound = "service_not_found"
	reasonPricingMissing  = "pricing_missing"
	reasonDBUnavailable   = "db_unavailable"
	reasonDeviation       = "deviation_safety_triggered"
)
