package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		province string
		gst      float64
		pst      float64
		total    float64
		wantProv string
	}{
		{name: "bc round numbers", subtotal: 100, province: "BC", gst: 5, pst: 7, total: 112, wantProv: "BC"},
		{name: "bc lowercase", subtotal: 203.44, province: "bc", gst: 10.17, pst: 14.24, total: 227.85, wantProv: "BC"},
		{name: "alberta has no pst", subtotal: 100, province: "AB", gst: 5, pst: 0, total: 105, wantProv: "AB"},
		{name: "unknown province uses bc", subtotal: 100, province: "ZZ", gst: 5, pst: 7, total: 112, wantProv: "BC"},
		{name: "empty province uses bc", subtotal: 149, province: "", gst: 7.45, pst: 10.43, total: 166.88, wantProv: "BC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTax(tt.subtotal, tt.province)
			assert.Equal(t, tt.gst, got.GST)
			assert.Equal(t, tt.pst, got.PST)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.wantProv, got.Province)
		})
	}
}

func TestCalculateTax_LineItems(t *testing.T) {
	bc := CalculateTax(100, "BC")
	assert.Equal(t, []LineItem{{Label: "GST (5%)", Amount: 5}, {Label: "BC PST (7%)", Amount: 7}}, bc.LineItems)

	ab := CalculateTax(100, "AB")
	assert.Equal(t, []LineItem{{Label: "GST (5%)", Amount: 5}}, ab.LineItems)
}
