package rtmodel

import (
	"math"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/crossval"
	"github.com/YuminosukeSato/rtguard/linear"
	"github.com/YuminosukeSato/rtguard/metrics"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SelectFeatures returns the regression features for an anchor set. LogP is
// always used; carbon length and unsaturation join when secondary descriptors
// are enabled, the anchor set is large enough and the descriptor varies.
func SelectFeatures(anchors []compound.Compound, cfg config.Config) []string {
	features := []string{FeatureLogP}
	if !cfg.SecondaryDescriptors || len(anchors) < cfg.MinAnchorsForDescriptors {
		return features
	}
	for _, f := range []string{FeatureCarbon, FeatureUnsaturation} {
		if distinct(anchors, f) >= 2 {
			features = append(features, f)
		}
	}
	return features
}

func distinct(anchors []compound.Compound, feature string) int {
	seen := make(map[float64]struct{}, len(anchors))
	for _, c := range anchors {
		seen[FeatureValue(c, feature)] = struct{}{}
	}
	return len(seen)
}

// Fit fits a model of retention time on the anchors.
//
// Fewer than 2 anchors is an InsufficientAnchorsError; fewer than 2 distinct
// LogP values, or a constant retention time, is a DegenerateFeatureError.
// In both cases no fit is attempted.
func Fit(scope string, provenance Provenance, anchors []compound.Compound, cfg config.Config) (*Model, error) {
	n := len(anchors)
	if n < 2 {
		return nil, errors.NewInsufficientAnchorsError(scope, n, 2)
	}
	if d := distinct(anchors, FeatureLogP); d < 2 {
		return nil, errors.NewDegenerateFeatureError(scope, FeatureLogP, d)
	}
	y := make([]float64, n)
	for i, c := range anchors {
		y[i] = c.RetentionTime
	}
	if floatsDistinct(y) < 2 {
		return nil, errors.NewDegenerateFeatureError(scope, "RT", 1)
	}

	features := SelectFeatures(anchors, cfg)
	p := len(features)
	X := mat.NewDense(n, p, nil)
	for i, c := range anchors {
		for j, f := range features {
			X.Set(i, j, FeatureValue(c, f))
		}
	}
	yMat := mat.NewDense(n, 1, y)

	factory := linear.Factory(linear.WithAlphas(cfg.Alphas...))
	reg := linear.NewRidgeCV(linear.WithAlphas(cfg.Alphas...))
	if err := reg.Fit(X, yMat); err != nil {
		return nil, errors.Wrapf(err, "fit %s", scope)
	}

	predMat, err := reg.Predict(X)
	if err != nil {
		return nil, errors.Wrapf(err, "predict %s", scope)
	}
	pred := mat.Col(nil, 0, predMat)

	trainingR2, err := metrics.R2Score(y, pred)
	if err != nil {
		return nil, errors.Wrapf(err, "training r2 %s", scope)
	}

	var splitter crossval.Splitter = crossval.LeaveOneOut{}
	if n >= cfg.LOOMaxAnchors {
		splitter = crossval.NewKFold(cfg.KFolds, true, cfg.RandomSeed)
	}
	validationR2, err := crossval.R2(factory, X, y, splitter)
	if err != nil {
		return nil, errors.Wrapf(err, "validation r2 %s", scope)
	}

	residualStd, err := metrics.ResidualStd(y, pred, n-p-1)
	if err != nil {
		return nil, errors.Wrapf(err, "residual std %s", scope)
	}
	residualStd = math.Max(residualStd, cfg.ResidualStdFloor)

	raw := reg.Coefficients()
	coefs := make([]Coefficient, p)
	for j, f := range features {
		coefs[j] = Coefficient{Feature: f, Value: raw[j]}
	}

	return &Model{
		Scope:            scope,
		Provenance:       provenance,
		Coefficients:     coefs,
		Intercept:        reg.InterceptValue(),
		Alpha:            reg.Alpha(),
		TrainingR2:       trainingR2,
		ValidationR2:     validationR2,
		ValidationMethod: splitter.Method(),
		ResidualStd:      residualStd,
		SampleCount:      n,
		Equation:         FormatEquation(coefs, reg.InterceptValue()),
	}, nil
}

func floatsDistinct(v []float64) int {
	seen := make(map[float64]struct{}, len(v))
	for _, x := range v {
		seen[x] = struct{}{}
	}
	return len(seen)
}
