package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う (n×1 の列ベクトルを返す)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// LinearModel は学習済み線形モデルの係数を公開するインターフェース
type LinearModel interface {
	// Coefficients は元の特徴量スケールでの係数を返す
	Coefficients() []float64
	// InterceptValue は切片を返す
	InterceptValue() float64
}

// Regressor は交差検証で fold ごとに作り直される回帰モデル
type Regressor interface {
	Fitter
	Predictor
	LinearModel
}

// RegressorFactory は未学習の Regressor を新しく生成する。
// 交差検証の各 fold は独立したインスタンスで学習する。
type RegressorFactory func() Regressor
