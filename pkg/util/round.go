package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds x to places decimal digits, half away from zero. NaN and
// infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}
