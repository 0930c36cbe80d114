// Package linear_model は勾配降下法で学習する線形回帰とロジスティック回帰を提供する。
package linear_model

import (
	"context"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// params は勾配降下法のハイパーパラメータ
type params struct {
	learningRate float64
	maxIter      int
	tol          float64 // 0なら固定回数の反復
	randomState  int64   // 負なら毎回異なる乱数列
}

func defaultParams() params {
	return params{
		learningRate: 1e-3,
		maxIter:      1000,
		tol:          0,
		randomState:  -1,
	}
}

// Option は LinearRegression と LogisticRegression の共通設定オプション
type Option func(*params)

// WithLearningRate は学習率を設定する（デフォルト1e-3、正の値のみ）
func WithLearningRate(lr float64) Option {
	return func(p *params) {
		p.learningRate = lr
	}
}

// WithMaxIter は反復回数の上限を設定する（デフォルト1000）
func WithMaxIter(n int) Option {
	return func(p *params) {
		p.maxIter = n
	}
}

// WithTol は早期終了の閾値を設定する。勾配の最大絶対値がtol未満になった時点で止まる。
// 0（デフォルト）なら maxIter 回すべて反復する。
func WithTol(tol float64) Option {
	return func(p *params) {
		p.tol = tol
	}
}

// WithRandomState は重みの初期化に使う乱数シードを設定する
func WithRandomState(seed int64) Option {
	return func(p *params) {
		p.randomState = seed
	}
}

func (p params) validate() error {
	if !(p.learningRate > 0) || math.IsInf(p.learningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a positive finite number", p.learningRate)
	}
	if p.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", p.maxIter)
	}
	if !(p.tol >= 0) || math.IsInf(p.tol, 0) {
		return errors.NewValidationError("tol", "must be a non-negative finite number", p.tol)
	}
	return nil
}

func (p params) asMap() map[string]interface{} {
	return map[string]interface{}{
		"learning_rate": p.learningRate,
		"max_iter":      p.maxIter,
		"tol":           p.tol,
		"random_state":  p.randomState,
	}
}

func newLogger(modelName string) log.Logger {
	return log.GetLoggerWithName("linear_model").With(
		log.ModelNameKey, modelName,
		log.EstimatorIDKey, uuid.NewString(),
	)
}

// descent は全バッチ勾配降下法の1回の学習
type descent struct {
	op     string
	params params
	logger log.Logger

	// link は線形予測 z = Xw + b を予測値に変換する
	link func(z float64) float64
	// loss は反復ごとの損失を計算する
	loss func(y, pred *mat.VecDense) (float64, error)
}

type descentResult struct {
	weights   []float64
	bias      float64
	nIter     int
	converged bool
	lossCurve []float64
}

// run は w, b から開始して反復する。w は書き換えられる。
// 各反復で pred = link(Xw + b)、r = pred - y、w -= lr·Xᵀr/n、b -= lr·mean(r)。
func (d *descent) run(X mat.Matrix, y *mat.VecDense, w []float64, b float64) (descentResult, error) {
	n, nFeatures := X.Dims()
	lr := d.params.learningRate
	invN := 1 / float64(n)

	weights := mat.NewVecDense(nFeatures, w)
	pred := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(nFeatures, nil)
	lossCurve := make([]float64, 0, d.params.maxIter)
	debug := d.logger.Enabled(context.Background(), log.LevelDebug)

	res := descentResult{}
	for iter := 0; iter < d.params.maxIter; iter++ {
		pred.MulVec(X, weights)
		raw := pred.RawVector().Data
		for i := range raw {
			raw[i] = d.link(raw[i] + b)
		}

		loss, err := d.loss(y, pred)
		if err != nil {
			return res, err
		}
		lossCurve = append(lossCurve, loss)
		if debug && iter%100 == 0 {
			d.logger.Debug("gradient descent progress",
				log.OperationKey, log.OperationFit,
				log.IterationKey, iter,
				log.LossKey, loss,
			)
		}

		resid.SubVec(pred, y)
		grad.MulVec(X.T(), resid)
		grad.ScaleVec(invN, grad)
		db := floats.Sum(resid.RawVector().Data) * invN

		weights.AddScaledVec(weights, -lr, grad)
		b -= lr * db

		if err := errors.CheckNumericalStability(d.op, weights.RawVector().Data, iter); err != nil {
			return res, err
		}
		if err := errors.CheckScalar(d.op, b, iter); err != nil {
			return res, err
		}

		res.nIter = iter + 1
		if d.params.tol > 0 && math.Max(mat.Norm(grad, math.Inf(1)), math.Abs(db)) < d.params.tol {
			res.converged = true
			break
		}
	}

	res.weights = weights.RawVector().Data
	res.bias = b
	res.lossCurve = lossCurve
	return res, nil
}

// checkXY は Fit の入力形状を検証し、サンプル数と特徴量数を返す
func checkXY(op string, X, y mat.Matrix) (int, int, error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if rows != yRows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	return rows, cols, nil
}

// checkX は予測時の入力の特徴量数が学習時と一致するか検証し、行数を返す
func checkX(op string, X mat.Matrix, nFeatures int) (int, error) {
	if X == nil {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if cols != nFeatures {
		return 0, errors.NewDimensionError(op, nFeatures, cols, 1)
	}
	return rows, nil
}

// decision は Xw + b を m×1 の列行列で返す
func decision(X mat.Matrix, weights []float64, bias float64) *mat.Dense {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	out.Mul(X, mat.NewDense(len(weights), 1, weights))
	out.Apply(func(_, _ int, v float64) float64 { return v + bias }, out)
	return out
}

func copyFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
