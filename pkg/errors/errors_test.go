package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "gdlinreg: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "gdlinreg: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestModelErrorUnwrapsSentinel(t *testing.T) {
	err := NewModelError("GDRegressor.Load", "empty data", ErrEmptyData)
	if !Is(err, ErrEmptyData) {
		t.Error("Expected Is(err, ErrEmptyData) to be true")
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		axis int
		want string
	}{
		{0, "gdlinreg: Load: dimension mismatch on axis 0 (rows). Expected 10, got 9"},
		{1, "gdlinreg: Load: dimension mismatch on axis 1 (features). Expected 10, got 9"},
	}

	for _, tt := range tests {
		err := NewDimensionError("Load", 10, 9, tt.axis)
		if err.Error() != tt.want {
			t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
		}

		var dimErr *DimensionError
		if !As(err, &dimErr) {
			t.Fatal("Error should be castable to *DimensionError")
		}
		if dimErr.Expected != 10 || dimErr.Got != 9 {
			t.Errorf("unexpected fields: %+v", dimErr)
		}
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GDRegressor", "Predict")

	want := "gdlinreg: GDRegressor: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("learning_rate", "must be positive", -0.5)

	want := "gdlinreg: validation failed for parameter 'learning_rate': must be positive (got: -0.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "learning_rate" {
		t.Errorf("ParamName = %q", valErr.ParamName)
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("MSE", "empty vector")
	if err.Error() != "gdlinreg: MSE: empty vector" {
		t.Errorf("Error() = %v", err.Error())
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("GDRegressor", 1000, "loss did not decrease")

	want := "GDRegressor failed to converge after 1000 iterations: loss did not decrease"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	prev := SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(prev)

	Warn(NewConvergenceWarning("GDRegressor", 10, ""))
	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}

	// zerologの関数が設定されていれば優先される
	var zl []error
	SetZerologWarnFunc(func(w error) { zl = append(zl, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("GDRegressor", 10, ""))
	if len(got) != 1 || len(zl) != 1 {
		t.Errorf("handler=%d zerolog=%d, want 1 and 1", len(got), len(zl))
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	dimErr := &DimensionError{Op: "Predict", Expected: 2, Got: 3, Axis: 1}
	logger.Error().EmbedObject(dimErr).Msg("failed")

	out := buf.String()
	for _, want := range []string{`"type":"DimensionError"`, `"axis_name":"features"`, `"expected":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s does not contain %s", out, want)
		}
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrNotLoaded, "in GDRegressor.Fit")

	if !Is(wrapped, ErrNotLoaded) {
		t.Error("Expected Is(wrapped, ErrNotLoaded) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in GDRegressor.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}
