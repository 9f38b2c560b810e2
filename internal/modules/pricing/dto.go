package pricing

import (
	"strings"

	"doorstep/internal/domain"
)

type QuoteInput struct {
	DeviceType string `form:"device_type" json:"device_type" validate:"required,oneof=mobile laptop tablet"`
	Brand      string `form:"brand" json:"brand" validate:"required,max=80"`
	Model      string `form:"model" json:"model" validate:"required,max=160"`
	Service    string `form:"service" json:"service" validate:"required,max=80"`
	Tier       string `form:"tier" json:"tier"`
	PostalCode string `form:"postal_code" json:"postal_code" validate:"omitempty,max=10"`
}

func (in QuoteInput) cacheKey(tier domain.PricingTier) string {
	return strings.Join([]string{
		normalizeKey(in.DeviceType),
		normalizeKey(in.Brand),
		normalizeKey(in.Model),
		normalizeKey(in.Service),
		string(tier),
		normalizePostal(in.PostalCode),
	}, "|")
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizePostal(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// PriceBreakdown is the customer-facing quote. LocationAdjustment is a fraction (0.05 = +5%).
type PriceBreakdown struct {
	BasePrice          float64            `json:"base_price"`
	FinalPrice         float64            `json:"final_price"`
	TierMultiplier     float64            `json:"tier_multiplier"`
	LocationAdjustment float64            `json:"location_adjustment"`
	FallbackUsed       bool               `json:"fallback_used"`
	Tier               domain.PricingTier `json:"tier"`
	TurnaroundHours    int                `json:"turnaround_hours"`
	Currency           string             `json:"currency"`
	DeviceModelID      *int64             `json:"device_model_id,omitempty"`
	ServiceID          *int64             `json:"service_id,omitempty"`
}

// clone copies the breakdown including the values behind its id pointers.
func (p PriceBreakdown) clone() *PriceBreakdown {
	out := p
	if p.DeviceModelID != nil {
		id := *p.DeviceModelID
		out.DeviceModelID = &id
	}
	if p.ServiceID != nil {
		id := *p.ServiceID
		out.ServiceID = &id
	}
	return &out
}

type BulkToggleRequest struct {
	IDs      []int64 `json:"ids" validate:"required,min=1,max=500"`
	IsActive *bool   `json:"is_active" validate:"required"`
}

type BulkToggleResponse struct {
	Updated int64 `json:"updated"`
}
