package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Reference is the coarse static price list keyed by device type and service
// slug. It backs the deviation-safety check and every fallback quote.
type Reference struct {
	Default float64                       `json:"default"`
	Prices  map[string]map[string]float64 `json:"prices"`
}

func DefaultReference() *Reference {
	return &Reference{
		Default: 149,
		Prices: map[string]map[string]float64{
			"mobile": {
				"screen-replacement":   149,
				"battery-replacement":  89,
				"charging-port-repair": 109,
				"speaker-repair":       99,
				"camera-repair":        119,
				"water-damage":         129,
				"other":                99,
			},
			"laptop": {
				"screen-replacement":  249,
				"battery-replacement": 139,
				"keyboard-repair":     159,
				"trackpad-repair":     139,
				"ram-upgrade":         119,
				"storage-upgrade":     179,
				"software-repair":     99,
				"virus-removal":       129,
				"cooling-repair":      159,
				"power-jack-repair":   149,
				"other":               129,
			},
			"tablet": {
				"screen-replacement":   189,
				"battery-replacement":  119,
				"charging-port-repair": 109,
				"speaker-repair":       99,
				"button-repair":        89,
				"software-repair":      99,
				"other":                109,
			},
		},
	}
}

// LoadReference reads a JSON reference file; an empty path yields the built-in list.
func LoadReference(path string) (*Reference, error) {
	if path == "" {
		return DefaultReference(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing reference: %w", err)
	}
	var ref Reference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("decode pricing reference: %w", err)
	}
	if ref.Default <= 0 {
		return nil, fmt.Errorf("pricing reference default must be > 0")
	}
	for dt, services := range ref.Prices {
		for slug, p := range services {
			if p <= 0 {
				return nil, fmt.Errorf("pricing reference %s/%s must be > 0", dt, slug)
			}
		}
	}
	return &ref, nil
}

// Price returns the reference price for a pair, then the device type's
// "other" price, then the global default.
func (r *Reference) Price(deviceType, serviceSlug string) float64 {
	services, ok := r.Prices[strings.ToLower(strings.TrimSpace(deviceType))]
	if !ok {
		return r.Default
	}
	if p, ok := services[strings.ToLower(strings.TrimSpace(serviceSlug))]; ok {
		return p
	}
	if p, ok := services["other"]; ok {
		return p
	}
	return r.Default
}
