package linear

import (
	"math"

	"github.com/YuminosukeSato/gdlinreg/metrics"
	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Loss は学習に用いる損失関数
type Loss interface {
	// Name は損失関数の名前（GetParamsのキー値）
	Name() string

	// Value はバッチ平均の損失を返す
	Value(yPred, yTrue []float64) float64

	// Gradient は各予測値に対する損失の勾配 ∂L/∂ŷ をdstに書き込む（バッチ平均適用済み）
	Gradient(yPred, yTrue []float64, dst []float64)
}

// SquaredError は平均二乗誤差 (1/m) Σ(ŷ−y)²
type SquaredError struct{}

// Name implements Loss.
func (SquaredError) Name() string { return "squared_error" }

// Value implements Loss.
func (SquaredError) Value(yPred, yTrue []float64) float64 {
	return batchMSE(yPred, yTrue)
}

// Gradient implements Loss: 2(ŷ−y)/m.
func (SquaredError) Gradient(yPred, yTrue []float64, dst []float64) {
	scale := 2 / float64(len(yPred))
	for i := range yPred {
		dst[i] = scale * (yPred[i] - yTrue[i])
	}
}

// HalfSquaredError は (1/m) Σ(ŷ−y)²/2
type HalfSquaredError struct{}

// Name implements Loss.
func (HalfSquaredError) Name() string { return "half_squared_error" }

// Value implements Loss.
func (HalfSquaredError) Value(yPred, yTrue []float64) float64 {
	return batchMSE(yPred, yTrue) / 2
}

// Gradient implements Loss: (ŷ−y)/m.
func (HalfSquaredError) Gradient(yPred, yTrue []float64, dst []float64) {
	scale := 1 / float64(len(yPred))
	for i := range yPred {
		dst[i] = scale * (yPred[i] - yTrue[i])
	}
}

// LossByName は名前から損失関数を返す
func LossByName(name string) (Loss, error) {
	switch name {
	case SquaredError{}.Name():
		return SquaredError{}, nil
	case HalfSquaredError{}.Name():
		return HalfSquaredError{}, nil
	default:
		return nil, errors.NewValidationError("loss", "unknown loss function", name)
	}
}

// batchMSE returns NaN when the slices are empty or differ in length.
func batchMSE(yPred, yTrue []float64) float64 {
	if len(yPred) == 0 || len(yTrue) == 0 {
		return math.NaN()
	}
	v, err := metrics.MSE(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
	if err != nil {
		return math.NaN()
	}
	return v
}
