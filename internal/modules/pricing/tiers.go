package pricing

import (
	"strings"

	"doorstep/internal/domain"
)

// TierProfile is a named multiplier. Tiers are never combined.
type TierProfile struct {
	Tier            domain.PricingTier `json:"tier"`
	Multiplier      float64            `json:"multiplier"`
	TurnaroundHours int                `json:"turnaround_hours"`
}

var tierProfiles = map[domain.PricingTier]TierProfile{
	domain.TierEconomy:  {Tier: domain.TierEconomy, Multiplier: 0.85, TurnaroundHours: 72},
	domain.TierStandard: {Tier: domain.TierStandard, Multiplier: 1.0, TurnaroundHours: 48},
	domain.TierPremium:  {Tier: domain.TierPremium, Multiplier: 1.25, TurnaroundHours: 24},
	domain.TierSameDay:  {Tier: domain.TierSameDay, Multiplier: 1.5, TurnaroundHours: 12},
}

// ParseTier accepts a tier name; an empty value means standard.
func ParseTier(s string) (TierProfile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return tierProfiles[domain.TierStandard], nil
	}
	if s == "express" || s == "same_day" || s == "sameday" {
		s = string(domain.TierSameDay)
	}
	p, ok := tierProfiles[domain.PricingTier(s)]
	if !ok {
		return TierProfile{}, ErrUnknownTier
	}
	return p, nil
}

// multiplierOf returns the multiplier of a stored tier, treating unknown values as standard.
func multiplierOf(t domain.PricingTier) float64 {
	if p, ok := tierProfiles[t]; ok {
		return p.Multiplier
	}
	return 1.0
}

func Tiers() []TierProfile {
	return []TierProfile{
		tierProfiles[domain.TierEconomy],
		tierProfiles[domain.TierStandard],
		tierProfiles[domain.TierPremium],
		tierProfiles[domain.TierSameDay],
	}
}
