package naive_bayes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// MultinomialNB は非負の計数特徴量（単語頻度など）向けの単純ベイズ分類器
type MultinomialNB struct {
	state  *model.StateManager
	logger log.Logger

	// Hyperparameters
	alpha    float64 // ラプラス平滑化パラメータ
	fitPrior bool    // falseなら一様な事前確率を使う

	// Learned parameters
	classes        []float64
	classCount     []int
	classLogPrior  []float64
	featureCount   *mat.Dense // クラスごとの特徴量の合計 (n_classes × n_features)
	featureLogProb *mat.Dense // log(likelihood) (n_classes × n_features)
}

// MultinomialNBOption は MultinomialNB の設定オプション
type MultinomialNBOption func(*MultinomialNB)

// WithAlpha は平滑化パラメータを設定する（デフォルト1.0、正の値のみ）
func WithAlpha(alpha float64) MultinomialNBOption {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior はクラス事前確率を学習データから推定するかを設定する（デフォルトtrue）
func WithFitPrior(fit bool) MultinomialNBOption {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fit
	}
}

// NewMultinomialNB は新しい MultinomialNB を作成する
func NewMultinomialNB(opts ...MultinomialNBOption) (*MultinomialNB, error) {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	if !(nb.alpha > 0) || math.IsInf(nb.alpha, 0) {
		return nil, errors.NewValidationError("alpha", "must be a positive finite number", nb.alpha)
	}
	nb.logger = newLogger("MultinomialNB")
	return nb, nil
}

// Fit はクラス事前確率と平滑化した尤度を推定する。
//
//	likelihood[c][f] = (Σ_{i∈c} X[i][f] + α) / (Σ_i X[i][f] + α)
//
// 負の特徴量を含む場合は ValueError を返す。
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	const op = "MultinomialNB.Fit"
	nSamples, nFeatures, err := checkXY(op, X, y)
	if err != nil {
		return err
	}
	if err := checkNonNegative(op, X); err != nil {
		return err
	}

	classes, index, counts := encodeLabels(mat.Col(nil, 0, y))
	nClasses := len(classes)

	featureCount := mat.NewDense(nClasses, nFeatures, nil)
	total := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		row := featureCount.RawRowView(index[i])
		for f := 0; f < nFeatures; f++ {
			v := X.At(i, f)
			row[f] += v
			total[f] += v
		}
	}

	featureLogProb := mat.NewDense(nClasses, nFeatures, nil)
	featureLogProb.Apply(func(c, f int, v float64) float64 {
		return math.Log((v + nb.alpha) / (total[f] + nb.alpha))
	}, featureCount)
	if err := errors.CheckMatrix(op, featureLogProb, 0); err != nil {
		return err
	}

	logPrior := make([]float64, nClasses)
	for c := range logPrior {
		if nb.fitPrior {
			logPrior[c] = math.Log(float64(counts[c]) / float64(nSamples))
		} else {
			logPrior[c] = -math.Log(float64(nClasses))
		}
	}

	nb.classes = classes
	nb.classCount = counts
	nb.classLogPrior = logPrior
	nb.featureCount = featureCount
	nb.featureLogProb = featureLogProb
	nb.state.SetFitted(nFeatures, nSamples)

	nb.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, nClasses,
		log.AlphaKey, nb.alpha,
	)
	return nil
}

// jointLogLikelihood は X · log(likelihood)ᵀ + log P(c) を計算する
func (nb *MultinomialNB) jointLogLikelihood(op, method string, X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted("MultinomialNB", method); err != nil {
		return nil, err
	}
	rows, err := checkX(op, X, nb.state.NFeatures())
	if err != nil {
		return nil, err
	}
	if err := checkNonNegative(op, X); err != nil {
		return nil, err
	}

	jll := mat.NewDense(rows, len(nb.classes), nil)
	jll.Mul(X, nb.featureLogProb.T())
	for i := 0; i < rows; i++ {
		row := jll.RawRowView(i)
		for c := range row {
			row[c] += nb.classLogPrior[c]
		}
	}
	return jll, nil
}

// Predict は事後確率が最大のクラスを m×1 の列行列で返す
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("MultinomialNB.Predict", "Predict", X)
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
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("MultinomialNB.PredictLogProba", "PredictLogProba", X)
	if err != nil {
		return nil, err
	}
	return normalizeLog(jll), nil
}

// PredictProba は各クラスの事後確率を返す（列は Classes() 順）
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("MultinomialNB.PredictProba", "PredictProba", X)
	if err != nil {
		return nil, err
	}
	return expDense(normalizeLog(jll)), nil
}

// Score は正解率を返す
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes は学習時に観測したクラスを昇順で返す
func (nb *MultinomialNB) Classes() []float64 {
	return copyFloats(nb.classes)
}

// ClassLogPrior はクラスごとの対数事前確率を返す
func (nb *MultinomialNB) ClassLogPrior() []float64 {
	return copyFloats(nb.classLogPrior)
}

// ClassPrior はクラスごとの事前確率を返す
func (nb *MultinomialNB) ClassPrior() []float64 {
	out := copyFloats(nb.classLogPrior)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	return out
}

// Likelihoods は平滑化した尤度 (n_classes × n_features) を返す
func (nb *MultinomialNB) Likelihoods() *mat.Dense {
	if nb.featureLogProb == nil {
		return nil
	}
	return expDense(nb.featureLogProb)
}

// FeatureCount はクラスごとの特徴量の合計 (n_classes × n_features) のコピーを返す
func (nb *MultinomialNB) FeatureCount() *mat.Dense {
	if nb.featureCount == nil {
		return nil
	}
	return mat.DenseCopyOf(nb.featureCount)
}

// FeatureLogProb は対数尤度 (n_classes × n_features) のコピーを返す
func (nb *MultinomialNB) FeatureLogProb() *mat.Dense {
	if nb.featureLogProb == nil {
		return nil
	}
	return mat.DenseCopyOf(nb.featureLogProb)
}

// IsFitted returns whether the model has been fitted
func (nb *MultinomialNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":     nb.alpha,
		"fit_prior": nb.fitPrior,
	}
}

// String returns the string representation of the model
func (nb *MultinomialNB) String() string {
	return fmt.Sprintf("MultinomialNB(alpha=%g, fit_prior=%t)", nb.alpha, nb.fitPrior)
}

func checkNonNegative(op string, X mat.Matrix) error {
	rows, cols := X.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if X.At(i, j) < 0 {
				return errors.NewValueError(op, fmt.Sprintf("negative value %g at (%d, %d); MultinomialNB requires non-negative features", X.At(i, j), i, j))
			}
		}
	}
	return nil
}
