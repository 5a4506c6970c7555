package linear

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/YuminosukeSato/gdlinreg/core/model"
	"github.com/YuminosukeSato/gdlinreg/core/parallel"
	"github.com/YuminosukeSato/gdlinreg/metrics"
	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
	"github.com/YuminosukeSato/gdlinreg/pkg/log"
	"github.com/YuminosukeSato/gdlinreg/telemetry"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	gdModelName = "GDRegressor"
	gdVersion   = "1.0.0"
)

// デフォルトのハイパーパラメータ
const (
	DefaultBatchSize    = 64
	DefaultLearningRate = 0.01
	DefaultNEpochs      = 1000
	DefaultInitScale    = 0.01
	DefaultLogEvery     = 100
)

// GDRegressor はミニバッチ勾配降下法で y = Xw + b を学習する線形回帰モデル
//
// 使用例:
//
//	reg := linear.NewGDRegressor(linear.WithBatchSize(32), linear.WithRandomState(42))
//	if err := reg.Load(X, y, true); err != nil { ... }
//	if err := reg.Fit(); err != nil { ... }
//	b, w := reg.Coefficients()
type GDRegressor struct {
	mu    sync.RWMutex
	state *model.StateManager
	id    string

	// ハイパーパラメータ
	batchSize        int
	learningRate     float64
	nEpochs          int
	shuffleEachEpoch bool
	loss             Loss
	randomState      int64
	initScale        float64
	logEvery         int
	checkNumerics    bool

	baseLogger log.Logger
	logger     log.Logger
	telemetry  *telemetry.Collector

	// Loadで束縛された学習データ
	xTrain *mat.Dense
	yTrain []float64
	loaded bool
	rng    *rand.Rand

	// 学習済みパラメータ
	coef_        []float64
	intercept_   float64
	nFeatures_   int
	nSamples_    int
	lossHistory_ []float64
	nIter_       int
}

// NewGDRegressor は新しいGDRegressorを作成する
func NewGDRegressor(opts ...Option) *GDRegressor {
	r := &GDRegressor{}
	r.setDefaults()
	for _, opt := range opts {
		opt(r)
	}
	r.initLogger()
	return r
}

// setDefaults fills state, id and the default hyperparameters.
func (r *GDRegressor) setDefaults() {
	r.state = model.NewStateManager()
	r.id = uuid.NewString()
	r.batchSize = DefaultBatchSize
	r.learningRate = DefaultLearningRate
	r.nEpochs = DefaultNEpochs
	r.loss = SquaredError{}
	r.randomState = -1
	r.initScale = DefaultInitScale
	r.logEvery = DefaultLogEvery
	r.checkNumerics = true
}

func (r *GDRegressor) initLogger() {
	if r.baseLogger == nil {
		r.baseLogger = log.GetLoggerWithName("linear")
	}
	r.logger = r.baseLogger.With(log.ModelNameKey, gdModelName, log.EstimatorIDKey, r.id)
}

// ensureInit makes a zero-value GDRegressor usable as a decode target.
func (r *GDRegressor) ensureInit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		return
	}
	r.setDefaults()
	r.initLogger()
}

// Configure はバッチサイズ・学習率・エポック数を設定する（検証はFit時）
func (r *GDRegressor) Configure(batchSize int, learningRate float64, nEpochs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchSize = batchSize
	r.learningRate = learningRate
	r.nEpochs = nEpochs
}

// ID returns the estimator's unique identifier.
func (r *GDRegressor) ID() string {
	return r.id
}

// Load は学習データをコピーして束縛する。shuffleがtrueなら行順を一様ランダムに並べ替える。
// 以前の学習結果は破棄される。
func (r *GDRegressor) Load(X, y mat.Matrix, shuffle bool) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("GDRegressor.Load", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("GDRegressor.Load", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("GDRegressor.Load", 1, yCols, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	xTrain := mat.DenseCopyOf(X)
	yTrain := mat.Col(nil, 0, y)

	if shuffle {
		perm := Permutation(rows, r.random())
		shuffled := mat.NewDense(rows, cols, nil)
		yShuffled := make([]float64, rows)
		for i, src := range perm {
			shuffled.SetRow(i, xTrain.RawRowView(src))
			yShuffled[i] = yTrain[src]
		}
		xTrain, yTrain = shuffled, yShuffled
	}

	r.xTrain = xTrain
	r.yTrain = yTrain
	r.loaded = true
	r.nSamples_ = rows
	r.nFeatures_ = cols
	r.resetFit()

	r.logger.Debug("Training data loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ShuffledKey, shuffle,
	)
	return nil
}

// Fit はLoad済みのデータでnEpochsエポック学習する
func (r *GDRegressor) Fit() error {
	return r.FitContext(context.Background())
}

// FitContext はFitと同じだが、各エポックの開始前にctxのキャンセルを確認する。
// キャンセルされた場合、モデルは未学習のまま残る。
func (r *GDRegressor) FitContext(ctx context.Context) (err error) {
	defer errors.Recover(&err, "GDRegressor.Fit")

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validate(); err != nil {
		return err
	}
	if !r.loaded {
		return errors.NewModelError("GDRegressor.Fit", "no training data", errors.ErrNotLoaded)
	}

	n, p := r.nSamples_, r.nFeatures_
	logger := r.logger.With(log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)
	logger.Info("Training started",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.BatchSizeKey, r.batchSize,
		log.BatchesKey, NumBatches(n, r.batchSize),
		log.EpochsKey, r.nEpochs,
		log.LearningRateKey, r.learningRate,
		log.LossFunctionKey, r.loss.Name(),
	)
	start := time.Now()

	r.resetFit()
	w := r.initWeights(p)
	b := 0.0
	wVec := mat.NewVecDense(p, w)

	// バッチ用の作業領域
	m0 := min(r.batchSize, n)
	xBuf := mat.NewDense(m0, p, nil)
	yBuf := make([]float64, m0)
	pred := make([]float64, m0)
	grad := make([]float64, m0)
	gradW := mat.NewVecDense(p, nil)

	indices := identity(n)
	history := make([]float64, 0, r.nEpochs)

	for epoch := 1; epoch <= r.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Training interrupted", log.EpochKey, epoch)
			return errors.Wrapf(err, "GDRegressor.Fit: interrupted before epoch %d", epoch)
		}

		if r.shuffleEachEpoch {
			indices = Permutation(n, r.random())
		}

		var total float64
		for _, batch := range Batches(indices, r.batchSize) {
			m := len(batch)
			xb := xBuf.Slice(0, m, 0, p).(*mat.Dense)
			yb, pb, gb := yBuf[:m], pred[:m], grad[:m]
			for k, idx := range batch {
				xb.SetRow(k, r.xTrain.RawRowView(idx))
				yb[k] = r.yTrain[idx]
			}

			// ŷ = X_b·w + b
			mat.NewVecDense(m, pb).MulVec(xb, wVec)
			floats.AddConst(b, pb)

			batchLoss := r.loss.Value(pb, yb)
			r.loss.Gradient(pb, yb, gb)

			// ∂L/∂w = X_bᵀ·∂L/∂ŷ, ∂L/∂b = Σ ∂L/∂ŷ
			gradW.MulVec(xb.T(), mat.NewVecDense(m, gb))
			gradB := floats.Sum(gb)

			floats.AddScaled(w, -r.learningRate, gradW.RawVector().Data)
			b -= r.learningRate * gradB

			if r.checkNumerics {
				if err := r.checkFinite(batchLoss, w, b, epoch); err != nil {
					logger.Error("Training diverged", err,
						log.ErrorCodeKey, log.ErrorDivergence,
						log.EpochKey, epoch,
						log.SuggestionKey, "lower learning_rate",
					)
					return err
				}
			}

			total += batchLoss * float64(m)
			r.telemetry.ObserveBatch(gdModelName)
		}

		epochLoss := total / float64(n)
		history = append(history, epochLoss)
		r.telemetry.ObserveEpoch(gdModelName, epochLoss)

		if r.logEvery > 0 && epoch%r.logEvery == 0 {
			logger.Info("Epoch finished", log.EpochKey, epoch, log.LossKey, epochLoss)
		}
	}

	r.coef_ = w
	r.intercept_ = b
	r.lossHistory_ = history
	r.nIter_ = r.nEpochs
	r.state.SetDimensions(p, n)
	r.state.SetFitted()

	final := history[len(history)-1]
	logger.Info("Training finished",
		log.LossKey, final,
		log.EpochsKey, r.nIter_,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if len(history) > 1 && final > history[0] {
		errors.Warn(errors.NewConvergenceWarning(gdModelName, r.nIter_,
			"final epoch loss exceeds the first epoch loss; consider lowering learning_rate"))
	}
	return nil
}

// Predict は X·w + b を返す（n_samples × 1）
func (r *GDRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "GDRegressor.Predict")

	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.state.RequireFitted(gdModelName, "Predict"); err != nil {
		return nil, err
	}
	return predictLinear("GDRegressor.Predict", X, r.coef_, r.intercept_)
}

// Score は決定係数（R²）を返す
func (r *GDRegressor) Score(X, y mat.Matrix) (float64, error) {
	return scoreLinear("GDRegressor.Score", r, X, y)
}

// Coefficients は切片と重みのコピーを返す
func (r *GDRegressor) Coefficients() (float64, []float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.intercept_, cloneFloats(r.coef_)
}

// Coef は学習された重み係数のコピーを返す（未学習ならnil）
func (r *GDRegressor) Coef() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneFloats(r.coef_)
}

// Intercept は学習された切片を返す
func (r *GDRegressor) Intercept() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.intercept_
}

// LossHistory はエポックごとの平均学習損失のコピーを返す
func (r *GDRegressor) LossHistory() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneFloats(r.lossHistory_)
}

// NIterations は直近のFitで実行したエポック数を返す
func (r *GDRegressor) NIterations() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nIter_
}

// IsFitted returns whether the model has been fitted
func (r *GDRegressor) IsFitted() bool {
	return r.state.IsFitted()
}

// GetParams はハイパーパラメータを返す
func (r *GDRegressor) GetParams() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params()
}

func (r *GDRegressor) params() map[string]interface{} {
	lossName := ""
	if r.loss != nil {
		lossName = r.loss.Name()
	}
	return map[string]interface{}{
		"batch_size":         r.batchSize,
		"learning_rate":      r.learningRate,
		"n_epochs":           r.nEpochs,
		"shuffle_each_epoch": r.shuffleEachEpoch,
		"loss":               lossName,
		"random_state":       r.randomState,
		"init_scale":         r.initScale,
		"log_every":          r.logEvery,
	}
}

// SetParams はハイパーパラメータを設定する。
// 数値はJSON由来のfloat64も受け付ける。不明なキーはValidationError。
func (r *GDRegressor) SetParams(params map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setParams(params)
}

// gdParams holds the settable hyperparameters while a SetParams call is parsed.
type gdParams struct {
	batchSize        int
	learningRate     float64
	nEpochs          int
	shuffleEachEpoch bool
	loss             Loss
	randomState      int64
	initScale        float64
	logEvery         int
}

// setParams parses every key before writing any field, so a rejected map
// leaves the regressor unchanged. Callers hold r.mu.
func (r *GDRegressor) setParams(params map[string]interface{}) error {
	p := gdParams{
		batchSize:        r.batchSize,
		learningRate:     r.learningRate,
		nEpochs:          r.nEpochs,
		shuffleEachEpoch: r.shuffleEachEpoch,
		loss:             r.loss,
		randomState:      r.randomState,
		initScale:        r.initScale,
		logEvery:         r.logEvery,
	}
	reseed := false

	for key, v := range params {
		var ok bool
		switch key {
		case "batch_size":
			p.batchSize, ok = toInt(v)
		case "learning_rate":
			p.learningRate, ok = toFloat(v)
		case "n_epochs":
			p.nEpochs, ok = toInt(v)
		case "shuffle_each_epoch":
			p.shuffleEachEpoch, ok = v.(bool)
		case "loss":
			var name string
			if name, ok = v.(string); ok {
				loss, err := LossByName(name)
				if err != nil {
					return err
				}
				p.loss = loss
			}
		case "random_state":
			var seed int
			if seed, ok = toInt(v); ok {
				p.randomState = int64(seed)
				reseed = true
			}
		case "init_scale":
			p.initScale, ok = toFloat(v)
		case "log_every":
			p.logEvery, ok = toInt(v)
		default:
			return errors.NewValidationError(key, "unknown parameter", v)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", v), v)
		}
	}

	r.batchSize = p.batchSize
	r.learningRate = p.learningRate
	r.nEpochs = p.nEpochs
	r.shuffleEachEpoch = p.shuffleEachEpoch
	r.loss = p.loss
	r.randomState = p.randomState
	r.initScale = p.initScale
	r.logEvery = p.logEvery
	if reseed {
		r.rng = nil
	}
	return nil
}

// ExportWeights はモデルの重みをエクスポートする（チェックサム付き）
func (r *GDRegressor) ExportWeights() (*model.ModelWeights, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.state.RequireFitted(gdModelName, "ExportWeights"); err != nil {
		return nil, err
	}
	return r.weights(), nil
}

func (r *GDRegressor) weights() *model.ModelWeights {
	fitted := r.state.IsFitted()
	mw := &model.ModelWeights{
		ModelType:       gdModelName,
		Version:         gdVersion,
		Intercept:       r.intercept_,
		IsFitted:        fitted,
		Hyperparameters: r.params(),
		Metadata: map[string]interface{}{
			"n_features":   r.nFeatures_,
			"n_samples":    r.nSamples_,
			"n_iter":       r.nIter_,
			"estimator_id": r.id,
		},
	}
	if fitted {
		mw.Coefficients = cloneFloats(r.coef_)
		mw.Seal()
	}
	return mw
}

// ImportWeights はエクスポートされた重みを読み込む
func (r *GDRegressor) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return errors.NewValueError("GDRegressor.ImportWeights", "weights cannot be nil")
	}
	if weights.ModelType != gdModelName {
		return errors.NewValueError("GDRegressor.ImportWeights",
			fmt.Sprintf("model type mismatch: expected %s, got %s", gdModelName, weights.ModelType))
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if err := weights.VerifyChecksum(); err != nil {
		return err
	}

	r.ensureInit()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setParams(weights.Hyperparameters); err != nil {
		return err
	}

	r.resetFit()
	if !weights.IsFitted {
		return nil
	}

	r.coef_ = cloneFloats(weights.Coefficients)
	r.intercept_ = weights.Intercept
	r.nFeatures_ = len(r.coef_)
	r.nSamples_, _ = toInt(weights.Metadata["n_samples"])
	r.nIter_, _ = toInt(weights.Metadata["n_iter"])
	r.state.SetDimensions(r.nFeatures_, r.nSamples_)
	r.state.SetFitted()
	return nil
}

// GobEncode lets model.SaveModel persist the regressor via its ModelWeights.
func (r *GDRegressor) GobEncode() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights().ToJSON()
}

// GobDecode restores a regressor written by GobEncode. A zero-value
// receiver gets default settings and the "linear" logger first.
func (r *GDRegressor) GobDecode(data []byte) error {
	var mw model.ModelWeights
	if err := mw.FromJSON(data); err != nil {
		return err
	}
	return r.ImportWeights(&mw)
}

// Clone は同じハイパーパラメータ・ロガー・テレメトリを持つ未学習のモデルを作成する
func (r *GDRegressor) Clone() *GDRegressor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewGDRegressor(
		WithBatchSize(r.batchSize),
		WithLearningRate(r.learningRate),
		WithNEpochs(r.nEpochs),
		WithShuffleEachEpoch(r.shuffleEachEpoch),
		WithLoss(r.loss),
		WithRandomState(r.randomState),
		WithInitScale(r.initScale),
		WithLogEvery(r.logEvery),
		WithCheckNumerics(r.checkNumerics),
		WithLogger(r.baseLogger),
		WithTelemetry(r.telemetry),
	)
}

// String implements fmt.Stringer.
func (r *GDRegressor) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lossName := "<nil>"
	if r.loss != nil {
		lossName = r.loss.Name()
	}
	return fmt.Sprintf("GDRegressor(batch_size=%d, learning_rate=%g, n_epochs=%d, loss=%s, fitted=%t)",
		r.batchSize, r.learningRate, r.nEpochs, lossName, r.state.IsFitted())
}

func (r *GDRegressor) validate() error {
	switch {
	case r.batchSize <= 0:
		return errors.NewValidationError("batch_size", "must be positive", r.batchSize)
	case !(r.learningRate > 0) || math.IsInf(r.learningRate, 0):
		return errors.NewValidationError("learning_rate", "must be a positive finite number", r.learningRate)
	case r.nEpochs <= 0:
		return errors.NewValidationError("n_epochs", "must be positive", r.nEpochs)
	case r.loss == nil:
		return errors.NewValidationError("loss", "is required", nil)
	case !(r.initScale >= 0):
		return errors.NewValidationError("init_scale", "must be non-negative", r.initScale)
	case r.logEvery < 0:
		return errors.NewValidationError("log_every", "must be non-negative", r.logEvery)
	}
	return nil
}

// random returns the regressor's generator, creating it from randomState on first use.
func (r *GDRegressor) random() *rand.Rand {
	if r.rng == nil {
		seed := uint64(r.randomState)
		if r.randomState < 0 {
			seed = uint64(time.Now().UnixNano())
		}
		r.rng = rand.New(rand.NewPCG(seed, seed))
	}
	return r.rng
}

// initWeights draws p weights from N(0, initScale²).
func (r *GDRegressor) initWeights(p int) []float64 {
	w := make([]float64, p)
	if r.initScale == 0 {
		return w
	}
	dist := distuv.Normal{Mu: 0, Sigma: r.initScale, Src: r.random()}
	for j := range w {
		w[j] = dist.Rand()
	}
	return w
}

func (r *GDRegressor) checkFinite(loss float64, w []float64, b float64, epoch int) error {
	if err := errors.CheckScalar("GDRegressor.Fit loss", loss, epoch); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("GDRegressor.Fit weights", w, epoch); err != nil {
		return err
	}
	return errors.CheckScalar("GDRegressor.Fit intercept", b, epoch)
}

// resetFit discards learned parameters. Callers hold r.mu.
func (r *GDRegressor) resetFit() {
	r.state.Reset()
	r.coef_ = nil
	r.intercept_ = 0
	r.lossHistory_ = nil
	r.nIter_ = 0
}

// predictLinear computes X·coef + intercept row by row, in parallel above
// parallel.DefaultThreshold rows.
func predictLinear(op string, X mat.Matrix, coef []float64, intercept float64) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if cols != len(coef) {
		return nil, errors.NewDimensionError(op, len(coef), cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = floats.Dot(row, coef) + intercept
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// scoreLinear returns R² of p's predictions on (X, y).
func scoreLinear(op string, p model.Predictor, X, y mat.Matrix) (float64, error) {
	rows, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != rows {
		return 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, errors.NewDimensionError(op, 1, yCols, 1)
	}

	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(metrics.ColumnOf(y), metrics.ColumnOf(pred))
}

func cloneFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
