// Package money holds the rounding rules for CAD amounts.
package money

import "math"

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToCents converts a dollar amount to integer cents for the payment gateway.
func ToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func FromCents(c int64) float64 {
	return Round2(float64(c) / 100)
}
