package naive_bayes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// GaussianNB は特徴量がクラスごとに独立な正規分布に従うと仮定する単純ベイズ分類器
type GaussianNB struct {
	state  *model.StateManager
	logger log.Logger

	// Hyperparameters
	varSmoothing float64

	// Learned parameters
	classes    []float64
	classCount []int
	classPrior []float64
	theta      *mat.Dense // クラスごとの平均 (n_classes × n_features)
	sigma      *mat.Dense // クラスごとの分散 (n_classes × n_features)
	epsilon    float64    // 分散の下限
}

// GaussianNBOption は GaussianNB の設定オプション
type GaussianNBOption func(*GaussianNB)

// WithVarSmoothing は分散の下限を決める係数を設定する（デフォルト1e-9）。
// 下限は全特徴量の分散の最大値にこの係数を掛けた値になる。
func WithVarSmoothing(v float64) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.varSmoothing = v
	}
}

// NewGaussianNB は新しい GaussianNB を作成する
func NewGaussianNB(opts ...GaussianNBOption) (*GaussianNB, error) {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
	}
	for _, opt := range opts {
		opt(nb)
	}
	if !(nb.varSmoothing > 0) || math.IsInf(nb.varSmoothing, 0) {
		return nil, errors.NewValidationError("var_smoothing", "must be a positive finite number", nb.varSmoothing)
	}
	nb.logger = newLogger("GaussianNB")
	return nb, nil
}

// Fit はクラスごとの事前確率、平均、分散を推定する。
// 分散はクラスに属するサンプルだけから母分散として計算する。
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	const op = "GaussianNB.Fit"
	nSamples, nFeatures, err := checkXY(op, X, y)
	if err != nil {
		return err
	}

	classes, index, counts := encodeLabels(mat.Col(nil, 0, y))
	nClasses := len(classes)

	// クラスごとに特徴量の値を集める
	grouped := make([][][]float64, nClasses)
	for c := range grouped {
		grouped[c] = make([][]float64, nFeatures)
		for f := range grouped[c] {
			grouped[c][f] = make([]float64, 0, counts[c])
		}
	}
	column := make([]float64, nSamples)
	maxVar := 0.0
	for f := 0; f < nFeatures; f++ {
		mat.Col(column, f, X)
		for i, v := range column {
			grouped[index[i]][f] = append(grouped[index[i]][f], v)
		}
		if _, v := popMeanVariance(column); v > maxVar {
			maxVar = v
		}
	}

	epsilon := nb.varSmoothing * maxVar
	if !(epsilon > 0) {
		epsilon = nb.varSmoothing
	}

	theta := mat.NewDense(nClasses, nFeatures, nil)
	sigma := mat.NewDense(nClasses, nFeatures, nil)
	priors := make([]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		priors[c] = float64(counts[c]) / float64(nSamples)
		for f := 0; f < nFeatures; f++ {
			mean, variance := popMeanVariance(grouped[c][f])
			theta.Set(c, f, mean)
			sigma.Set(c, f, math.Max(variance, epsilon))
		}
	}

	if err := errors.CheckMatrix(op, theta, 0); err != nil {
		return err
	}
	if err := errors.CheckMatrix(op, sigma, 0); err != nil {
		return err
	}

	nb.classes = classes
	nb.classCount = counts
	nb.classPrior = priors
	nb.theta = theta
	nb.sigma = sigma
	nb.epsilon = epsilon
	nb.state.SetFitted(nFeatures, nSamples)

	nb.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, nClasses,
	)
	return nil
}

// popMeanVariance は母平均と母分散を返す。要素が1つなら分散は0
func popMeanVariance(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.PopMeanVariance(x, nil)
}

// jointLogLikelihood は各行・各クラスの log P(c) + Σ_f log N(x_f; θ, σ²) を計算する
func (nb *GaussianNB) jointLogLikelihood(op, method string, X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted("GaussianNB", method); err != nil {
		return nil, err
	}
	nFeatures := nb.state.NFeatures()
	rows, err := checkX(op, X, nFeatures)
	if err != nil {
		return nil, err
	}

	nClasses := len(nb.classes)
	// クラスごとの定数項 log P(c) - 0.5 Σ_f log(2πσ²)
	constant := make([]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		s := math.Log(nb.classPrior[c])
		for _, v := range nb.sigma.RawRowView(c) {
			s -= 0.5 * math.Log(2*math.Pi*v)
		}
		constant[c] = s
	}

	jll := mat.NewDense(rows, nClasses, nil)
	x := make([]float64, nFeatures)
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		for c := 0; c < nClasses; c++ {
			mean := nb.theta.RawRowView(c)
			variance := nb.sigma.RawRowView(c)
			s := constant[c]
			for f, v := range x {
				d := v - mean[f]
				s -= d * d / (2 * variance[f])
			}
			jll.Set(i, c, s)
		}
	}
	return jll, nil
}

// Predict は事後確率が最大のクラスを m×1 の列行列で返す
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("GaussianNB.Predict", "Predict", X)
	if err != nil {
		return nil, err
	}
	pred := argmaxRows(jll, nb.classes)
	nb.logger.Debug("predict completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, pred.RawMatrix().Rows,
	)
	return pred, nil
}

// PredictLogProba は各クラスの対数事後確率を返す（列は Classes() 順）
func (nb *GaussianNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("GaussianNB.PredictLogProba", "PredictLogProba", X)
	if err != nil {
		return nil, err
	}
	return normalizeLog(jll), nil
}

// PredictProba は各クラスの事後確率を返す（列は Classes() 順）
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("GaussianNB.PredictProba", "PredictProba", X)
	if err != nil {
		return nil, err
	}
	return expDense(normalizeLog(jll)), nil
}

// Score は正解率を返す
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes は学習時に観測したクラスを昇順で返す
func (nb *GaussianNB) Classes() []float64 {
	return copyFloats(nb.classes)
}

// ClassPrior はクラスごとの事前確率を返す
func (nb *GaussianNB) ClassPrior() []float64 {
	return copyFloats(nb.classPrior)
}

// ClassCount はクラスごとの学習サンプル数を返す
func (nb *GaussianNB) ClassCount() []int {
	if nb.classCount == nil {
		return nil
	}
	out := make([]int, len(nb.classCount))
	copy(out, nb.classCount)
	return out
}

// Theta はクラスごとの平均 (n_classes × n_features) のコピーを返す
func (nb *GaussianNB) Theta() *mat.Dense {
	if nb.theta == nil {
		return nil
	}
	return mat.DenseCopyOf(nb.theta)
}

// Var はクラスごとの分散 (n_classes × n_features) のコピーを返す
func (nb *GaussianNB) Var() *mat.Dense {
	if nb.sigma == nil {
		return nil
	}
	return mat.DenseCopyOf(nb.sigma)
}

// Epsilon は分散に適用された下限を返す
func (nb *GaussianNB) Epsilon() float64 {
	return nb.epsilon
}

// IsFitted returns whether the model has been fitted
func (nb *GaussianNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"var_smoothing": nb.varSmoothing,
	}
}

// String returns the string representation of the model
func (nb *GaussianNB) String() string {
	return fmt.Sprintf("GaussianNB(var_smoothing=%g)", nb.varSmoothing)
}
