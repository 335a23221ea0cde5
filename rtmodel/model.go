// Package rtmodel fits retention-time models from anchor compounds and
// reports both in-sample and cross-validated R².
package rtmodel

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/rtguard/compound"
)

// Provenance records which anchor set a model was fitted on.
type Provenance string

const (
	ProvenanceOwn    Provenance = "own"
	ProvenanceFamily Provenance = "family"
	ProvenanceGlobal Provenance = "global"
)

// Feature names used in coefficients and equations.
const (
	FeatureLogP         = "LogP"
	FeatureCarbon       = "C"
	FeatureUnsaturation = "DB"
)

// Coefficient is one named regression weight in original units.
type Coefficient struct {
	Feature string  `json:"feature" yaml:"feature"`
	Value   float64 `json:"value" yaml:"value"`
}

// Model is a fitted retention-time model. It is immutable once returned by Fit.
type Model struct {
	// Scope names the anchor set: a prefix, a family key or "global".
	Scope      string     `json:"scope" yaml:"scope"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`

	Coefficients []Coefficient `json:"coefficients" yaml:"coefficients"`
	Intercept    float64       `json:"intercept" yaml:"intercept"`
	Alpha        float64       `json:"alpha" yaml:"alpha"`

	TrainingR2       float64 `json:"training_r2" yaml:"training_r2"`
	ValidationR2     float64 `json:"validation_r2" yaml:"validation_r2"`
	ValidationMethod string  `json:"validation_method" yaml:"validation_method"`

	// ResidualStd is the anchor residual standard deviation, already floored.
	ResidualStd float64 `json:"residual_std" yaml:"residual_std"`
	SampleCount int     `json:"sample_count" yaml:"sample_count"`
	Equation    string  `json:"equation" yaml:"equation"`
}

// FeatureValue extracts a named feature from c.
func FeatureValue(c compound.Compound, feature string) float64 {
	switch feature {
	case FeatureLogP:
		return c.LogP
	case FeatureCarbon:
		return float64(c.Carbon)
	case FeatureUnsaturation:
		return float64(c.Unsaturation)
	}
	return math.NaN()
}

// Features returns the feature names in column order.
func (m *Model) Features() []string {
	out := make([]string, len(m.Coefficients))
	for i, c := range m.Coefficients {
		out[i] = c.Feature
	}
	return out
}

// Coefficient returns the weight of feature and whether the model uses it.
func (m *Model) Coefficient(feature string) (float64, bool) {
	for _, c := range m.Coefficients {
		if c.Feature == feature {
			return c.Value, true
		}
	}
	return 0, false
}

// Predict returns the predicted retention time of c.
func (m *Model) Predict(c compound.Compound) float64 {
	rt := m.Intercept
	for _, coef := range m.Coefficients {
		rt += coef.Value * FeatureValue(c, coef.Feature)
	}
	return rt
}

// Residual returns observed minus predicted retention time.
func (m *Model) Residual(c compound.Compound) float64 {
	return c.RetentionTime - m.Predict(c)
}

// FormatEquation renders "RT = 2.0000*LogP + 0.1000*C - 0.3000*DB + 3.0000".
func FormatEquation(coefs []Coefficient, intercept float64) string {
	var b strings.Builder
	b.WriteString("RT =")
	for i, c := range coefs {
		v := c.Value
		switch {
		case i == 0 && v < 0:
			fmt.Fprintf(&b, " -%.4f*%s", -v, c.Feature)
		case i == 0:
			fmt.Fprintf(&b, " %.4f*%s", v, c.Feature)
		case v < 0:
			fmt.Fprintf(&b, " - %.4f*%s", -v, c.Feature)
		default:
			fmt.Fprintf(&b, " + %.4f*%s", v, c.Feature)
		}
	}
	switch {
	case len(coefs) == 0:
		fmt.Fprintf(&b, " %.4f", intercept)
	case intercept < 0:
		fmt.Fprintf(&b, " - %.4f", -intercept)
	default:
		fmt.Fprintf(&b, " + %.4f", intercept)
	}
	return b.String()
}
