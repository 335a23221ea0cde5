package crossval

import (
	"fmt"

	"github.com/YuminosukeSato/rtguard/core/model"
	"github.com/YuminosukeSato/rtguard/core/parallel"
	"github.com/YuminosukeSato/rtguard/metrics"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// foldParallelThreshold は fold を並列に学習し始める fold 数
const foldParallelThreshold = 8

// Predict returns the out-of-fold prediction for every sample: each fold is
// fitted on a fresh Regressor from factory and predicts its held-out rows.
//
// A fold whose training set has a single sample predicts that sample's value.
// A panic inside a fold is recovered and returned as a PanicError.
func Predict(factory model.RegressorFactory, X mat.Matrix, y []float64, splitter Splitter) ([]float64, error) {
	n, p := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("crossval.Predict", n, len(y), 0)
	}
	if n < 2 {
		return nil, errors.NewValueError("crossval.Predict", "at least 2 samples are required")
	}

	folds := splitter.Split(n)
	preds := make([]float64, n)

	err := parallel.ForEach(len(folds), foldParallelThreshold, func(f int) error {
		return errors.SafeExecute(fmt.Sprintf("crossval fold %d", f), func() error {
			return predictFold(factory, X, y, p, folds[f], f, preds)
		})
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// predictFold fits one fold and writes its held-out predictions into preds.
func predictFold(factory model.RegressorFactory, X mat.Matrix, y []float64, p int, fold Fold, f int, preds []float64) error {
	if len(fold.Train) == 1 {
		for _, idx := range fold.Test {
			preds[idx] = y[fold.Train[0]]
		}
		return nil
	}

	Xtr, ytr := subset(X, y, fold.Train, p)
	reg := factory()
	if err := reg.Fit(Xtr, ytr); err != nil {
		return errors.Wrapf(err, "crossval fold %d", f)
	}

	Xte, _ := subset(X, y, fold.Test, p)
	out, err := reg.Predict(Xte)
	if err != nil {
		return errors.Wrapf(err, "crossval fold %d", f)
	}
	for i, idx := range fold.Test {
		preds[idx] = out.At(i, 0)
	}
	return nil
}

// R2 scores the pooled out-of-fold predictions with metrics.R2Score.
func R2(factory model.RegressorFactory, X mat.Matrix, y []float64, splitter Splitter) (float64, error) {
	preds, err := Predict(factory, X, y, splitter)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, preds)
}

// subset extracts subset of data based on indices
func subset(X mat.Matrix, y []float64, indices []int, p int) (*mat.Dense, *mat.Dense) {
	xs := mat.NewDense(len(indices), p, nil)
	ys := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < p; j++ {
			xs.Set(i, j, X.At(idx, j))
		}
		ys.Set(i, 0, y[idx])
	}
	return xs, ys
}
