package model

import (
	"bytes"
	"testing"

	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
)

func fittedWeights() *ModelWeights {
	mw := &ModelWeights{
		ModelType:       "GDRegressor",
		Version:         "1.0.0",
		Coefficients:    []float64{3.01, -0.5},
		Intercept:       1.98,
		IsFitted:        true,
		Hyperparameters: map[string]interface{}{"batch_size": 64},
	}
	mw.Seal()
	return mw
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ModelWeights)
		wantErr bool
	}{
		{name: "valid", mutate: func(*ModelWeights) {}},
		{name: "missing type", mutate: func(mw *ModelWeights) { mw.ModelType = "" }, wantErr: true},
		{name: "missing version", mutate: func(mw *ModelWeights) { mw.Version = "" }, wantErr: true},
		{name: "fitted without coefficients", mutate: func(mw *ModelWeights) { mw.Coefficients = nil }, wantErr: true},
		{name: "unfitted with coefficients", mutate: func(mw *ModelWeights) { mw.IsFitted = false }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := fittedWeights()
			tt.mutate(mw)
			if err := mw.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelWeightsJSONChecksum(t *testing.T) {
	data, err := fittedWeights().ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded ModelWeights
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if err := decoded.VerifyChecksum(); err != nil {
		t.Errorf("VerifyChecksum() after JSON round trip = %v", err)
	}

	decoded.Intercept += 1e-9
	err = decoded.VerifyChecksum()
	var ve *errors.ValueError
	if !errors.As(err, &ve) {
		t.Errorf("VerifyChecksum() on tampered weights = %v, want ValueError", err)
	}
}

func TestModelWeightsMissingChecksum(t *testing.T) {
	mw := fittedWeights()
	delete(mw.Metadata, ChecksumKey)

	var ve *errors.ValueError
	if err := mw.VerifyChecksum(); !errors.As(err, &ve) {
		t.Errorf("VerifyChecksum() on fitted weights without checksum = %v, want ValueError", err)
	}

	unfitted := &ModelWeights{ModelType: "GDRegressor", Version: "1.0.0"}
	if err := unfitted.VerifyChecksum(); err != nil {
		t.Errorf("VerifyChecksum() on unfitted weights = %v, want nil", err)
	}

	mw.Metadata[ChecksumKey] = 42
	if err := mw.VerifyChecksum(); !errors.As(err, &ve) {
		t.Errorf("VerifyChecksum() with non-string checksum = %v, want ValueError", err)
	}
}

func TestModelWeightsClone(t *testing.T) {
	mw := fittedWeights()
	c := mw.Clone()
	c.Coefficients[0] = 100
	c.Hyperparameters["batch_size"] = 1

	if mw.Coefficients[0] != 3.01 {
		t.Error("Clone() shares coefficient storage")
	}
	if mw.Hyperparameters["batch_size"] != 64 {
		t.Error("Clone() shares hyperparameter map")
	}
}

func TestGobPersistence(t *testing.T) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(fittedWeights(), &buf); err != nil {
		t.Fatalf("SaveModelToWriter() error = %v", err)
	}

	var loaded ModelWeights
	if err := LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader() error = %v", err)
	}
	if loaded.Intercept != 1.98 || len(loaded.Coefficients) != 2 {
		t.Errorf("loaded weights = %+v", loaded)
	}

	if err := LoadModel(&loaded, t.TempDir()+"/missing.gob"); err == nil {
		t.Error("LoadModel() on missing file should fail")
	}
}
