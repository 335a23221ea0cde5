package linear

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultAlphaMin   = 1e-6
	defaultAlphaMax   = 1e3
	defaultAlphaCount = 10
)

// DefaultAlphas returns the log-spaced ridge grid 1e-6 .. 1e3 (10 values).
func DefaultAlphas() []float64 {
	return AlphaGrid(defaultAlphaMin, defaultAlphaMax, defaultAlphaCount)
}

// AlphaGrid returns n log-spaced values in [min, max].
func AlphaGrid(min, max float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{min}
	}
	return floats.LogSpan(make([]float64, n), min, max)
}

// Option is a function that configures RidgeCV
type Option func(*RidgeCV)

// WithAlphas sets the candidate regularization strengths. Values are sorted
// ascending; non-positive values are dropped.
func WithAlphas(alphas ...float64) Option {
	return func(r *RidgeCV) {
		grid := make([]float64, 0, len(alphas))
		for _, a := range alphas {
			if a > 0 {
				grid = append(grid, a)
			}
		}
		sort.Float64s(grid)
		r.alphas = grid
	}
}

// WithTieTolerance sets the relative tolerance under which two LOO errors
// are considered equal; ties resolve to the smaller alpha.
func WithTieTolerance(tol float64) Option {
	return func(r *RidgeCV) {
		r.tieTol = tol
	}
}
