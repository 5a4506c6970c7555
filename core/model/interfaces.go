// Package model provides the interfaces and shared state types of the estimators.
package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter is implemented by estimators that fit directly on (X, y).
type Fitter interface {
	// Fit trains the model on X (n_samples × n_features) and y (n_samples × 1).
	Fit(X, y mat.Matrix) error
}

// Loader binds a training set to an iterative trainer.
type Loader interface {
	// Load binds X and y, permuting their rows when shuffle is true.
	Load(X, y mat.Matrix, shuffle bool) error
}

// Trainer is an iterative estimator whose data is bound by Load before Fit.
type Trainer interface {
	Loader
	// Fit runs training over the loaded data.
	Fit() error
	// FitContext is Fit with cooperative cancellation between epochs.
	FitContext(ctx context.Context) error
}

// Predictor is implemented by models that can predict.
type Predictor interface {
	// Predict returns an n_samples × 1 matrix of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// LinearModel exposes learned linear coefficients.
type LinearModel interface {
	// Coef returns a copy of the weights, one per feature.
	Coef() []float64
	// Intercept returns the bias term.
	Intercept() float64
}

// Regressor combines interfaces for linear regression models.
type Regressor interface {
	Predictor
	Scorer
	LinearModel
}

// WeightExporter is implemented by models whose parameters can round-trip
// through ModelWeights.
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(weights *ModelWeights) error
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow hyperparameter changes.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
