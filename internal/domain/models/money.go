package models

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to the given decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// MulRound multiplies a by b and rounds the product to places.
func MulRound(a, b float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(places).Float64()
	return f
}

// DivRound divides a by b and rounds the quotient; a zero divisor yields 0.
func DivRound(a, b float64, places int32) float64 {
	if b == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(a).DivRound(decimal.NewFromFloat(b), places).Float64()
	return f
}

// Sum adds values without accumulating float error and rounds to places.
func Sum(places int32, values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(places).Float64()
	return f
}
