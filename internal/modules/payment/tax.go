package payment

import (
	"fmt"
	"strings"

	"doorstep/internal/pkg/money"
)

// DefaultProvince is used when a booking carries no known province.
const DefaultProvince = "BC"

type taxRates struct {
	GST float64
	PST float64
}

var provinceRates = map[string]taxRates{
	"BC": {GST: 0.05, PST: 0.07},
	"AB": {GST: 0.05, PST: 0},
}

type LineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type TaxBreakdown struct {
	Province  string     `json:"province"`
	Subtotal  float64    `json:"subtotal"`
	GST       float64    `json:"gst"`
	PST       float64    `json:"pst"`
	Total     float64    `json:"total"`
	LineItems []LineItem `json:"line_items"`
}

// CalculateTax rounds each component to cents before summing so the line
// items always add up to the total.
func CalculateTax(subtotal float64, province string) TaxBreakdown {
	province = strings.ToUpper(strings.TrimSpace(province))
	rates, ok := provinceRates[province]
	if !ok {
		province = DefaultProvince
		rates = provinceRates[DefaultProvince]
	}

	sub := money.Round2(subtotal)
	gst := money.Round2(sub * rates.GST)
	pst := money.Round2(sub * rates.PST)

	out := TaxBreakdown{
		Province: province,
		Subtotal: sub,
		GST:      gst,
		PST:      pst,
		Total:    money.Round2(sub + gst + pst),
	}
	out.LineItems = append(out.LineItems, LineItem{Label: fmt.Sprintf("GST (%s)", percent(rates.GST)), Amount: gst})
	if rates.PST > 0 {
		out.LineItems = append(out.LineItems, LineItem{Label: fmt.Sprintf("%s PST (%s)", province, percent(rates.PST)), Amount: pst})
	}
	return out
}

func percent(rate float64) string {
	return fmt.Sprintf("%g%%", money.Round2(rate*100))
}
