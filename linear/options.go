package linear

import (
	"github.com/YuminosukeSato/gdlinreg/pkg/log"
	"github.com/YuminosukeSato/gdlinreg/telemetry"
)

// Option configures a GDRegressor.
type Option func(*GDRegressor)

// WithBatchSize sets the number of examples per mini-batch.
func WithBatchSize(n int) Option {
	return func(r *GDRegressor) {
		r.batchSize = n
	}
}

// WithLearningRate sets the gradient-descent step size.
func WithLearningRate(lr float64) Option {
	return func(r *GDRegressor) {
		r.learningRate = lr
	}
}

// WithNEpochs sets the number of full passes over the training data.
func WithNEpochs(n int) Option {
	return func(r *GDRegressor) {
		r.nEpochs = n
	}
}

// WithShuffleEachEpoch draws a fresh example order at the start of every epoch.
// By default the order fixed by Load is reused.
func WithShuffleEachEpoch(shuffle bool) Option {
	return func(r *GDRegressor) {
		r.shuffleEachEpoch = shuffle
	}
}

// WithLoss sets the training loss (SquaredError by default).
func WithLoss(loss Loss) Option {
	return func(r *GDRegressor) {
		r.loss = loss
	}
}

// WithRandomState seeds shuffling and weight initialisation.
// A negative seed draws one from the clock.
func WithRandomState(seed int64) Option {
	return func(r *GDRegressor) {
		r.randomState = seed
	}
}

// WithInitScale sets the standard deviation of the initial weights.
func WithInitScale(sigma float64) Option {
	return func(r *GDRegressor) {
		r.initScale = sigma
	}
}

// WithLogger sets the logger; a nil logger is ignored.
func WithLogger(l log.Logger) Option {
	return func(r *GDRegressor) {
		if l != nil {
			r.baseLogger = l
		}
	}
}

// WithLogEvery sets the epoch interval of progress logs. 0 disables them.
func WithLogEvery(n int) Option {
	return func(r *GDRegressor) {
		r.logEvery = n
	}
}

// WithTelemetry attaches prometheus collectors to the training loop.
func WithTelemetry(c *telemetry.Collector) Option {
	return func(r *GDRegressor) {
		r.telemetry = c
	}
}

// WithCheckNumerics toggles NaN/Inf checks after every mini-batch.
func WithCheckNumerics(check bool) Option {
	return func(r *GDRegressor) {
		r.checkNumerics = check
	}
}

// OLSOption configures a LinearRegression.
type OLSOption func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) OLSOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}
