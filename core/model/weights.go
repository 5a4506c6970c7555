package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
)

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（GDRegressor, LinearRegression）
	ModelType string `json:"model_type"`

	// Version はモデルのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の統計、チェックサム等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ChecksumKey is the Metadata key holding the coefficient checksum.
const ChecksumKey = "checksum"

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "decode model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}

	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}

	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return errors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
	}

	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return errors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	}

	return nil
}

// Seal は係数と切片のチェックサムをMetadataに記録する
func (mw *ModelWeights) Seal() {
	if mw.Metadata == nil {
		mw.Metadata = make(map[string]interface{})
	}
	mw.Metadata[ChecksumKey] = Checksum(mw.Coefficients, mw.Intercept)
}

// VerifyChecksum はMetadataのチェックサムを検証する。
// 学習済みの重みはチェックサム必須。未学習の重みでチェックサムが無い場合は何もしない。
func (mw *ModelWeights) VerifyChecksum() error {
	want, ok := mw.Metadata[ChecksumKey].(string)
	if !ok {
		if mw.IsFitted {
			return errors.NewValueError("ModelWeights.VerifyChecksum", "fitted weights carry no checksum")
		}
		return nil
	}
	if want != Checksum(mw.Coefficients, mw.Intercept) {
		return errors.NewValueError("ModelWeights.VerifyChecksum", "checksum mismatch: weights may be corrupted")
	}
	return nil
}

// Checksum returns the SHA-256 of the JSON encoding of coef followed by intercept.
func Checksum(coef []float64, intercept float64) string {
	data := make([]float64, 0, len(coef)+1)
	data = append(data, coef...)
	data = append(data, intercept)
	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([]float64, len(mw.Coefficients)),
		Hyperparameters: make(map[string]interface{}),
		Metadata:        make(map[string]interface{}),
	}

	copy(clone.Coefficients, mw.Coefficients)

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}

	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}
