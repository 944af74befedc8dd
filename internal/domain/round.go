package domain

import "math"

// RoundTo округляет v до digits знаков после запятой
func RoundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
