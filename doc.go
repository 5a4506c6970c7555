// Package gdlinreg fits linear regression models by mini-batch gradient descent
// on top of gonum.
//
// The trainer follows a load-then-fit workflow: the training set is bound once
// (optionally shuffled), then Fit runs a fixed number of epochs over
// consecutive mini-batches, updating the weights and bias with the closed-form
// gradient of the mean squared error.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gdlinreg/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
//	    y := mat.NewDense(4, 1, []float64{2, 5, 8, 11})
//
//	    reg := linear.NewGDRegressor(linear.WithBatchSize(2), linear.WithLearningRate(0.05))
//	    if err := reg.Load(X, y, true); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := reg.Fit(); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    b, w := reg.Coefficients()
//	    fmt.Println("intercept:", b, "weights:", w)
//	}
//
// # Packages
//
//   - linear: GDRegressor (mini-batch gradient descent), batch partitioning,
//     loss functions and the closed-form LinearRegression baseline
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/model: estimator interfaces, state management and weight persistence
//   - core/parallel: row-range parallelisation used by Predict
//   - pkg/errors: typed errors with stack traces, numerical checks and warnings
//   - pkg/log: structured logging (zerolog and slog)
//   - report: loss-curve plots
//   - telemetry: prometheus collectors for training progress
//
// # Performance
//
// Predict is parallelised automatically for inputs with more than 1000 rows.
// Training is single-threaded; Predict may be called concurrently.
package gdlinreg
