package linear

import (
	"fmt"

	"github.com/YuminosukeSato/gdlinreg/core/model"
	"github.com/YuminosukeSato/gdlinreg/core/parallel"
	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const olsModelName = "LinearRegression"

// LinearRegression は最小二乗法（QR分解）による線形回帰モデル。
// GDRegressorの学習結果と比較する閉形式の基準解として使う。
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool

	coef_      []float64
	intercept_ float64
	nFeatures_ int
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...OLSOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式の代わりに数値的に安定なQR分解で min ||Xw − y||² を解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	// 入力の検証
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, cy, 1)
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}
	nParams := c + offset
	if r < nParams {
		return errors.NewValueError("LinearRegression.Fit",
			fmt.Sprintf("need at least %d samples to estimate %d parameters, got %d", nParams, nParams, r))
	}

	// 切片項のために X の先頭に 1 の列を追加: [1, X]
	design := mat.NewDense(r, nParams, nil)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if lr.fitIntercept {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var qr mat.QR
	qr.Factorize(design)

	var solution mat.Dense
	if err := qr.SolveTo(&solution, false, y); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	lr.intercept_ = 0
	if lr.fitIntercept {
		lr.intercept_ = solution.At(0, 0)
	}
	lr.coef_ = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.coef_[j] = solution.At(j+offset, 0)
	}
	lr.nFeatures_ = c

	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "LinearRegression.Predict")

	if err := lr.state.RequireFitted(olsModelName, "Predict"); err != nil {
		return nil, err
	}
	return predictLinear("LinearRegression.Predict", X, lr.coef_, lr.intercept_)
}

// Score はモデルの決定係数（R²）を計算
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	return scoreLinear("LinearRegression.Score", lr, X, y)
}

// Coef は学習された重み係数を返す
func (lr *LinearRegression) Coef() []float64 {
	return cloneFloats(lr.coef_)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept_
}

// IsFitted returns whether the model has been fitted
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// ExportWeights はモデルの重みをエクスポート
func (lr *LinearRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(olsModelName, "ExportWeights"); err != nil {
		return nil, err
	}
	_, nSamples := lr.state.GetDimensions()
	mw := &model.ModelWeights{
		ModelType:       olsModelName,
		Version:         gdVersion,
		Coefficients:    lr.Coef(),
		Intercept:       lr.intercept_,
		IsFitted:        true,
		Hyperparameters: map[string]interface{}{"fit_intercept": lr.fitIntercept},
		Metadata: map[string]interface{}{
			"n_features": lr.nFeatures_,
			"n_samples":  nSamples,
		},
	}
	mw.Seal()
	return mw, nil
}

var (
	_ model.Trainer         = (*GDRegressor)(nil)
	_ model.Regressor       = (*GDRegressor)(nil)
	_ model.WeightExporter  = (*GDRegressor)(nil)
	_ model.ParameterGetter = (*GDRegressor)(nil)
	_ model.ParameterSetter = (*GDRegressor)(nil)
	_ model.Fitter          = (*LinearRegression)(nil)
	_ model.Regressor       = (*LinearRegression)(nil)
)
