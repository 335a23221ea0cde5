package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// FloorAbs returns value when |value| >= floor, otherwise floor with the sign of value.
// A zero value is floored to +floor.
func FloorAbs(value, floor float64) float64 {
	if math.Abs(value) >= floor {
		return value
	}
	if value < 0 {
		return -floor
	}
	return floor
}
