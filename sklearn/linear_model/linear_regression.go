package linear_model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// LinearRegression は平均二乗誤差を全バッチ勾配降下法で最小化する線形回帰
type LinearRegression struct {
	state  *model.StateManager // State management (composition instead of embedding)
	logger log.Logger

	params params

	// Learned parameters
	coef_      []float64 // Weight coefficients
	intercept_ float64   // Intercept
	nIter_     int
	lossCurve_ []float64 // 反復ごとのMSE
}

// NewLinearRegression は新しいLinearRegressionモデルを作成
func NewLinearRegression(opts ...Option) (*LinearRegression, error) {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &LinearRegression{
		state:  model.NewStateManager(),
		logger: newLogger("LinearRegression"),
		params: p,
	}, nil
}

// Fit はモデルを訓練データで学習。
// 重みは [-0.5, 0.5) の一様乱数、切片は0から始める。
// 失敗した場合、以前の学習結果は変更されない。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	const op = "LinearRegression.Fit"
	nSamples, nFeatures, err := checkXY(op, X, y)
	if err != nil {
		return err
	}

	rng := lr.newRand()
	w := make([]float64, nFeatures)
	for j := range w {
		w[j] = rng.Float64() - 0.5
	}

	d := &descent{
		op:     op,
		params: lr.params,
		logger: lr.logger,
		link:   func(z float64) float64 { return z },
		loss:   metrics.MSE,
	}
	res, err := d.run(X, mat.NewVecDense(nSamples, mat.Col(nil, 0, y)), w, 0)
	if err != nil {
		lr.logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return err
	}
	if lr.params.tol > 0 && !res.converged {
		errors.Warn(errors.NewConvergenceWarning("LinearRegression", res.nIter, ""))
	}

	lr.coef_ = res.weights
	lr.intercept_ = res.bias
	lr.nIter_ = res.nIter
	lr.lossCurve_ = res.lossCurve
	lr.state.SetFitted(nFeatures, nSamples)

	lr.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, res.nIter,
		log.LossKey, res.lossCurve[len(res.lossCurve)-1],
	)
	return nil
}

func (lr *LinearRegression) newRand() *rand.Rand {
	if lr.params.randomState >= 0 {
		return rand.New(rand.NewSource(lr.params.randomState))
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

// Predict は入力データに対する予測 Xw + b を m×1 の列行列で返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	if _, err := checkX("LinearRegression.Predict", X, lr.state.NFeatures()); err != nil {
		return nil, err
	}
	return decision(X, lr.coef_, lr.intercept_), nil
}

// Score はモデルの決定係数（R²）を計算
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, predictions)
}

// Coef は学習された重み係数を返す
func (lr *LinearRegression) Coef() []float64 {
	return copyFloats(lr.coef_)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter は実際に行った反復回数を返す
func (lr *LinearRegression) NIter() int {
	return lr.nIter_
}

// LossCurve は反復ごとのMSEを返す（i番目はi回目の更新前の値）
func (lr *LinearRegression) LossCurve() []float64 {
	return copyFloats(lr.lossCurve_)
}

// IsFitted returns whether the model has been fitted
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model's hyperparameters
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return lr.params.asMap()
}

// String returns the string representation of the model
func (lr *LinearRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LinearRegression(learning_rate=%g, max_iter=%d, tol=%g)",
			lr.params.learningRate, lr.params.maxIter, lr.params.tol)
	}
	return fmt.Sprintf("LinearRegression(learning_rate=%g, n_features=%d, fitted=true)",
		lr.params.learningRate, lr.state.NFeatures())
}
