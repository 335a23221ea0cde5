// Package metrics は回帰モデルの評価指標を提供する。
// 予測値と実測値はどちらも保持時間 (分) のスライスとして渡す。
package metrics

import (
	"math"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// SSE は残差平方和 Σ(yTrue - yPred)² を計算する
func SSE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("SSE", yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		sum += diff * diff
	}
	return sum, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred []float64) (float64, error) {
	sse, err := SSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sse / float64(len(yTrue)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}
	diff := make([]float64, len(yTrue))
	floats.SubTo(diff, yTrue, yPred)
	return floats.Norm(diff, 1) / float64(len(yTrue)), nil
}

// R2Score は決定係数（R²）を計算する。
// 交差検証では fold ごとの予測を連結したベクトルを渡す（fold ごとの平均ではない）。
func R2Score(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	yMean := stat.Mean(yTrue, nil)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := range yTrue {
		tss += (yTrue[i] - yMean) * (yTrue[i] - yMean)
		rss += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// ResidualStd は自由度 dof で割った残差の標準偏差 sqrt(Σr²/dof) を計算する。
// dof <= 0 の場合はサンプル数で割る。
func ResidualStd(yTrue, yPred []float64, dof int) (float64, error) {
	sse, err := SSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if dof <= 0 {
		dof = len(yTrue)
	}
	return math.Sqrt(sse / float64(dof)), nil
}

// Pearson はピアソンの相関係数を計算する。どちらかの分散が0の場合はエラー
func Pearson(x, y []float64) (float64, error) {
	if err := checkPair("Pearson", x, y); err != nil {
		return 0, err
	}
	if len(x) < 2 {
		return 0, errors.NewValueError("Pearson", "need at least 2 samples")
	}
	_, sx := stat.MeanStdDev(x, nil)
	_, sy := stat.MeanStdDev(y, nil)
	if sx == 0 || sy == 0 {
		return 0, errors.NewValueError("Pearson", "zero variance input")
	}
	return stat.Correlation(x, y, nil), nil
}

// Median は中央値を返す。偶数個の場合は中央2値の平均
func Median(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, errors.NewValueError("Median", "empty vector")
	}
	sorted := append([]float64(nil), x...)
	floats.Argsort(sorted, make([]int, len(sorted)))
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}
