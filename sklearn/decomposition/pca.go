// Package decomposition は主成分分析（PCA）による次元削減を提供する。
package decomposition

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// eigenTolerance は λ_max に対する相対的なゼロ判定の閾値
const eigenTolerance = 1e-10

// PCA は共分散行列の固有値分解による主成分分析
//
// components の各行は単位ベクトルで互いに直交し、固有値の降順に並ぶ。
type PCA struct {
	state  *model.StateManager
	logger log.Logger

	nComponents int

	// 学習結果
	mean              []float64
	components        *mat.Dense // nComponents × nFeatures
	explainedVariance []float64
	totalVariance     float64
}

// NewPCA は新しいPCAを作成する
//
// パラメータ:
//   - nComponents: 残す主成分の数（1以上、Fit時に特徴量数以下であること）
//
// 使用例:
//
//	pca, err := decomposition.NewPCA(2)
//	Z, err := pca.FitTransform(X)
func NewPCA(nComponents int) (*PCA, error) {
	if nComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be at least 1", nComponents)
	}
	return &PCA{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("decomposition").With(
			log.ModelNameKey, "PCA",
			log.EstimatorIDKey, uuid.NewString(),
		),
		nComponents: nComponents,
	}, nil
}

// Fit は訓練データの平均と主成分を学習する。
// 共分散は不偏推定（n-1で割る）。失敗した場合、以前の学習結果は変更されない。
func (p *PCA) Fit(X mat.Matrix) (err error) {
	const op = "PCA.Fit"
	defer errors.Recover(&err, op)

	if X == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if nSamples < 2 {
		return errors.NewValueError(op, fmt.Sprintf("at least 2 samples are required, got %d", nSamples))
	}
	if p.nComponents > nFeatures {
		return errors.NewValidationError("n_components",
			fmt.Sprintf("must not exceed n_features=%d", nFeatures), p.nComponents)
	}
	if err := errors.CheckMatrix(op, X, 0); err != nil {
		return err
	}

	mean := make([]float64, nFeatures)
	col := make([]float64, nSamples)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(col, j, X), nil)
	}

	cov := mat.NewSymDense(nFeatures, nil)
	stat.CovarianceMatrix(cov, X, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return errors.NewModelError(op, "eigen decomposition", errors.ErrDecompositionFailed)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// 固有値の降順、同値なら元のインデックス順
	order := make([]int, nFeatures)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	lambdaMax := values[order[0]]
	threshold := eigenTolerance * math.Max(1, lambdaMax)
	nonZero := 0
	for _, v := range values {
		if v > threshold {
			nonZero++
		}
	}
	if nonZero < p.nComponents {
		return errors.NewNumericalInstabilityError("eigen_decomposition", values, 0)
	}

	components := mat.NewDense(p.nComponents, nFeatures, nil)
	explained := make([]float64, p.nComponents)
	row := make([]float64, nFeatures)
	abs := make([]float64, nFeatures)
	for i := 0; i < p.nComponents; i++ {
		mat.Col(row, order[i], &vectors)
		for j, v := range row {
			abs[j] = math.Abs(v)
		}
		// 絶対値最大の要素が正になるよう符号を揃える
		if row[floats.MaxIdx(abs)] < 0 {
			floats.Scale(-1, row)
		}
		components.SetRow(i, row)
		explained[i] = values[order[i]]
	}

	total := 0.0
	for _, v := range values {
		total += math.Max(v, 0)
	}

	p.mean = mean
	p.components = components
	p.explainedVariance = explained
	p.totalVariance = total
	p.state.SetFitted(nFeatures, nSamples)

	p.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ComponentsKey, p.nComponents,
		log.ExplainedVarianceKey, floats.Sum(p.ExplainedVarianceRatio()),
	)
	return nil
}

// Transform は学習時の平均で中心化したデータを主成分へ射影する（m × nComponents）
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	const op = "PCA.Transform"
	if err := p.state.RequireFitted("PCA", "Transform"); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if cols != p.state.NFeatures() {
		return nil, errors.NewDimensionError(op, p.state.NFeatures(), cols, 1)
	}

	centered := mat.DenseCopyOf(X)
	centered.Apply(func(_, j int, v float64) float64 { return v - p.mean[j] }, centered)

	out := mat.NewDense(rows, p.nComponents, nil)
	out.Mul(centered, p.components.T())

	p.logger.Debug("transform completed",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, rows,
	)
	return out, nil
}

// FitTransform は Fit の後に同じデータを Transform する
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform は射影されたデータを元の特徴量空間へ戻す。
// nComponents が特徴量数と等しければ Transform の逆写像になる。
func (p *PCA) InverseTransform(Z mat.Matrix) (mat.Matrix, error) {
	const op = "PCA.InverseTransform"
	if err := p.state.RequireFitted("PCA", "InverseTransform"); err != nil {
		return nil, err
	}
	if Z == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	rows, cols := Z.Dims()
	if rows == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if cols != p.nComponents {
		return nil, errors.NewDimensionError(op, p.nComponents, cols, 1)
	}

	out := mat.NewDense(rows, p.state.NFeatures(), nil)
	out.Mul(Z, p.components)
	out.Apply(func(_, j int, v float64) float64 { return v + p.mean[j] }, out)
	return out, nil
}

// Components は主成分（nComponents × nFeatures）のコピーを返す
func (p *PCA) Components() *mat.Dense {
	if p.components == nil {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

// Mean は学習データの特徴量ごとの平均を返す
func (p *PCA) Mean() []float64 {
	return copyFloats(p.mean)
}

// ExplainedVariance は各主成分の固有値（分散）を返す
func (p *PCA) ExplainedVariance() []float64 {
	return copyFloats(p.explainedVariance)
}

// ExplainedVarianceRatio は全分散に対する各主成分の分散の割合を返す
func (p *PCA) ExplainedVarianceRatio() []float64 {
	if p.explainedVariance == nil {
		return nil
	}
	ratio := make([]float64, len(p.explainedVariance))
	for i, v := range p.explainedVariance {
		ratio[i] = errors.SafeDivide(v, p.totalVariance)
	}
	return ratio
}

// NComponents は主成分の数を返す
func (p *PCA) NComponents() int {
	return p.nComponents
}

// IsFitted returns whether the model has been fitted
func (p *PCA) IsFitted() bool {
	return p.state.IsFitted()
}

// GetParams returns the model's hyperparameters
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": p.nComponents,
	}
}

// String returns the string representation of the model
func (p *PCA) String() string {
	if !p.state.IsFitted() {
		return fmt.Sprintf("PCA(n_components=%d)", p.nComponents)
	}
	return fmt.Sprintf("PCA(n_components=%d, n_features=%d, fitted=true)", p.nComponents, p.state.NFeatures())
}

func copyFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
