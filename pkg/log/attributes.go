// Package log defines standard attribute keys for training and inference logs.
//
// Using these keys keeps log lines from every estimator in the module filterable
// by the same hierarchical names (e.g. "model.name", "training.epoch").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GDRegressor", "LinearRegression"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	// GDRegressor assigns a UUID at construction.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "load", "fit", "predict", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the configured mini-batch size.
	BatchSizeKey = "data.batch_size"

	// BatchesKey indicates the number of mini-batches per epoch.
	BatchesKey = "data.batches"

	// ShuffledKey records whether the example order was permuted on load.
	ShuffledKey = "data.shuffled"
)

// Performance and Training Metrics
const (
	// DurationMsKey records operation duration in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the loss function value.
	LossKey = "metrics.loss"

	// R2ScoreKey records the coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"

	// EpochsKey records the total number of epochs configured.
	EpochsKey = "training.epochs"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides hints for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the learning rate for gradient-based algorithms.
	LearningRateKey = "hyperparams.learning_rate"

	// LossFunctionKey records the loss function name.
	LossFunctionKey = "hyperparams.loss"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationLoad    = "load"
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorDivergence        = "DIVERGENCE"
)
