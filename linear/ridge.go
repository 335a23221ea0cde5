// Package linear は保持時間回帰に使う線形モデルを提供する。
package linear

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/rtguard/core/model"
	"github.com/YuminosukeSato/rtguard/core/parallel"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// RidgeCV は L2 正則化付き線形回帰で、正則化強度 alpha を
// 厳密な Leave-One-Out 誤差で選択する。
//
// 特徴量は標準化してから学習し、切片には罰則をかけない。
// 係数は元のスケールに戻して保持する。
type RidgeCV struct {
	state  *model.StateManager
	scaler *preprocessing.StandardScaler

	alphas []float64
	tieTol float64

	alpha     float64
	looMSE    []float64
	coef      []float64
	intercept float64
}

// NewRidgeCV は新しい RidgeCV を作成する
//
// 使用例:
//
//	r := linear.NewRidgeCV(linear.WithAlphas(0.01, 0.1, 1))
//	err := r.Fit(X, y)
func NewRidgeCV(opts ...Option) *RidgeCV {
	r := &RidgeCV{
		state:  model.NewStateManager(),
		alphas: DefaultAlphas(),
		tieTol: 1e-9,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Factory returns a model.RegressorFactory producing RidgeCV models with the
// same options.
func Factory(opts ...Option) model.RegressorFactory {
	return func() model.Regressor {
		return NewRidgeCV(opts...)
	}
}

// Fit はモデルを訓練データで学習させる。
//
// 拡張特徴量 z = [1, x_scaled] の十分統計量 S = Σ z zᵀ, b = Σ z y を一度だけ作り、
// 各 alpha について i 番目のサンプルを除いた S - z_i z_iᵀ, b - z_i y_i から
// (S_i + αD) w = b_i を解いて LOO 予測を得る。D は切片以外の対角成分が1の行列。
func (r *RidgeCV) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	ny, cy := y.Dims()

	if n == 0 || p == 0 {
		return errors.NewModelError("RidgeCV.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("RidgeCV.Fit", n, ny, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RidgeCV.Fit", "y must be a column vector")
	}
	if n < 2 {
		return errors.NewValueError("RidgeCV.Fit", "at least 2 samples are required for leave-one-out selection")
	}
	if len(r.alphas) == 0 {
		return errors.NewValueError("RidgeCV.Fit", "empty alpha grid")
	}

	r.state.Reset()
	r.scaler = preprocessing.NewStandardScalerDefault()
	Z, err := r.scaler.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "RidgeCV.Fit")
	}

	// 切片項のために Z に 1 の列を追加
	k := p + 1
	Za := mat.NewDense(n, k, nil)
	yv := make([]float64, n)
	for i := 0; i < n; i++ {
		Za.Set(i, 0, 1.0)
		for j := 0; j < p; j++ {
			Za.Set(i, j+1, Z.At(i, j))
		}
		yv[i] = y.At(i, 0)
	}

	var S mat.Dense
	S.Mul(Za.T(), Za)
	b := mat.NewVecDense(k, nil)
	b.MulVec(Za.T(), mat.NewVecDense(n, yv))

	looMSE := make([]float64, len(r.alphas))
	parallel.ParallelizeWithThreshold(len(r.alphas), 32, func(start, end int) {
		for a := start; a < end; a++ {
			looMSE[a] = looError(Za, yv, &S, b, r.alphas[a])
		}
	})

	best := selectAlpha(looMSE, r.tieTol)
	if best < 0 {
		return errors.NewModelError("RidgeCV.Fit", "no alpha produced a finite leave-one-out error", errors.ErrSingularMatrix)
	}

	w, err := solveRidge(&S, b, r.alphas[best])
	if err != nil {
		return errors.NewModelError("RidgeCV.Fit", "singular matrix", err)
	}
	if err := errors.CheckNumericalStability("RidgeCV.Fit", w, 0); err != nil {
		return err
	}

	weights := make([]float64, p)
	for j := 0; j < p; j++ {
		weights[j] = w[j+1]
	}
	coef, intercept, err := r.scaler.Unscale(weights, w[0])
	if err != nil {
		return errors.Wrap(err, "RidgeCV.Fit")
	}

	r.alpha = r.alphas[best]
	r.looMSE = looMSE
	r.coef = coef
	r.intercept = intercept

	// モデルを学習済み状態に設定
	r.state.SetFitted(p, n)
	return nil
}

// looError は alpha に対する LOO 平均二乗誤差を返す。解けない場合は +Inf
func looError(Za *mat.Dense, y []float64, S *mat.Dense, b *mat.VecDense, alpha float64) float64 {
	n, k := Za.Dims()
	var sse float64
	Si := mat.NewDense(k, k, nil)
	bi := mat.NewVecDense(k, nil)
	for i := 0; i < n; i++ {
		zi := Za.RowView(i)

		// S_i = S - z_i z_iᵀ, b_i = b - z_i y_i
		Si.Copy(S)
		for r := 0; r < k; r++ {
			for c := 0; c < k; c++ {
				Si.Set(r, c, Si.At(r, c)-zi.AtVec(r)*zi.AtVec(c))
			}
		}
		bi.AddScaledVec(b, -y[i], zi)

		w, err := solveRidge(Si, bi, alpha)
		if err != nil {
			return math.Inf(1)
		}
		pred := mat.Dot(mat.NewVecDense(k, w), zi)
		diff := y[i] - pred
		sse += diff * diff
	}
	mse := sse / float64(n)
	if math.IsNaN(mse) {
		return math.Inf(1)
	}
	return mse
}

// solveRidge は (S + αD) w = b を解く。まず Cholesky 分解を試し、失敗したら LU で解く
func solveRidge(S mat.Matrix, b *mat.VecDense, alpha float64) ([]float64, error) {
	k, _ := S.Dims()
	A := mat.NewSymDense(k, nil)
	for r := 0; r < k; r++ {
		for c := r; c < k; c++ {
			v := (S.At(r, c) + S.At(c, r)) / 2
			if r == c && r > 0 {
				v += alpha
			}
			A.SetSym(r, c, v)
		}
	}

	w := mat.NewVecDense(k, nil)
	var chol mat.Cholesky
	if chol.Factorize(A) {
		if err := chol.SolveVecTo(w, b); err == nil {
			return w.RawVector().Data, nil
		}
	}
	if err := w.SolveVec(A, b); err != nil {
		return nil, errors.ErrSingularMatrix
	}
	return w.RawVector().Data, nil
}

// selectAlpha は LOO 誤差が最小の alpha の添字を返す。
// 最小値との差が相対 tol 以内なら小さい alpha を優先する。
func selectAlpha(looMSE []float64, tol float64) int {
	minIdx := -1
	for i, v := range looMSE {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		if minIdx < 0 || v < looMSE[minIdx] {
			minIdx = i
		}
	}
	if minIdx < 0 {
		return -1
	}
	limit := looMSE[minIdx] + tol*math.Max(math.Abs(looMSE[minIdx]), 1e-300)
	for i, v := range looMSE {
		if v <= limit {
			return i
		}
	}
	return minIdx
}

// Predict は入力データに対する予測を行う
func (r *RidgeCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.state.RequireFitted("RidgeCV", "Predict"); err != nil {
		return nil, err
	}

	n, p := X.Dims()
	if p != len(r.coef) {
		return nil, errors.NewDimensionError("RidgeCV.Predict", len(r.coef), p, 1)
	}

	// 予測: y = X * coef + intercept
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred := r.intercept
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * r.coef[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Coefficients は元のスケールでの係数を返す
func (r *RidgeCV) Coefficients() []float64 {
	if r.coef == nil {
		return nil
	}
	return append([]float64(nil), r.coef...)
}

// InterceptValue は切片を返す
func (r *RidgeCV) InterceptValue() float64 {
	return r.intercept
}

// Alpha は選択された正則化強度を返す
func (r *RidgeCV) Alpha() float64 {
	return r.alpha
}

// Alphas は候補の正則化強度（昇順）を返す
func (r *RidgeCV) Alphas() []float64 {
	return append([]float64(nil), r.alphas...)
}

// LOOErrors は Alphas と同じ順序で各 alpha の LOO 平均二乗誤差を返す
func (r *RidgeCV) LOOErrors() []float64 {
	return append([]float64(nil), r.looMSE...)
}

// IsFitted は学習済みかどうかを返す
func (r *RidgeCV) IsFitted() bool {
	return r.state.IsFitted()
}

// String はモデルの文字列表現を返す
func (r *RidgeCV) String() string {
	if !r.IsFitted() {
		return fmt.Sprintf("RidgeCV(n_alphas=%d)", len(r.alphas))
	}
	return fmt.Sprintf("RidgeCV(alpha=%g, n_features=%d)", r.alpha, len(r.coef))
}
