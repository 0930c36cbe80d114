// Package neighbors は k近傍法による分類・回帰を提供する。
//
// 分類器と回帰器は同じエンジン KNeighbors を共有し、近傍ラベルの集約方法
// （多数決または平均）だけが異なる。
package neighbors

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/core/parallel"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// Aggregation は近傍の目的変数をまとめる方法
type Aggregation int

const (
	// MajorityVote は近傍ラベルの多数決（分類）
	MajorityVote Aggregation = iota
	// Mean は近傍の目的変数の算術平均（回帰）
	Mean
)

func (a Aggregation) String() string {
	if a == Mean {
		return "mean"
	}
	return "majority_vote"
}

// KNeighbors は総当たり探索による k近傍法の推定器
type KNeighbors struct {
	state  *model.StateManager
	logger log.Logger

	// Hyperparameters
	k           int
	metric      Metric
	aggregation Aggregation
	configErr   error

	// Learned parameters
	xTrain  *mat.Dense
	yTrain  []float64
	classes []float64
}

// Option は KNeighbors の設定オプション
type Option func(*KNeighbors)

// WithK は近傍数を設定する（デフォルト5）
func WithK(k int) Option {
	return func(kn *KNeighbors) {
		kn.k = k
	}
}

// WithMetric は距離関数を設定する（デフォルトL2）
func WithMetric(m Metric) Option {
	return func(kn *KNeighbors) {
		kn.metric = m
	}
}

// WithMetricName は名前で距離関数を設定する。不明な名前はコンストラクタがエラーにする
func WithMetricName(name string) Option {
	return func(kn *KNeighbors) {
		m, err := ParseMetric(name)
		if err != nil {
			kn.configErr = err
			return
		}
		kn.metric = m
	}
}

// NewKNeighborsClassifier は多数決で予測する KNeighbors を作成する
func NewKNeighborsClassifier(opts ...Option) (*KNeighbors, error) {
	return newKNeighbors(MajorityVote, "KNeighborsClassifier", opts)
}

// NewKNeighborsRegressor は近傍の平均で予測する KNeighbors を作成する
func NewKNeighborsRegressor(opts ...Option) (*KNeighbors, error) {
	return newKNeighbors(Mean, "KNeighborsRegressor", opts)
}

func newKNeighbors(agg Aggregation, name string, opts []Option) (*KNeighbors, error) {
	kn := &KNeighbors{
		state:       model.NewStateManager(),
		k:           5,
		metric:      L2,
		aggregation: agg,
	}
	for _, opt := range opts {
		opt(kn)
	}

	if kn.configErr != nil {
		return nil, kn.configErr
	}
	if kn.k <= 0 {
		return nil, errors.NewValidationError("k", "must be positive", kn.k)
	}
	if !kn.metric.valid() {
		return nil, errors.NewValidationError("metric", "unknown metric", kn.metric)
	}

	kn.logger = log.GetLoggerWithName("neighbors").With(
		log.ModelNameKey, name,
		log.EstimatorIDKey, uuid.NewString(),
	)
	return kn, nil
}

func (kn *KNeighbors) modelName() string {
	if kn.aggregation == Mean {
		return "KNeighborsRegressor"
	}
	return "KNeighborsClassifier"
}

// Fit は訓練データのコピーを保持する。k が訓練サンプル数を超える場合はエラー
func (kn *KNeighbors) Fit(X, y mat.Matrix) error {
	op := kn.modelName() + ".Fit"
	nSamples, nFeatures, err := checkXY(op, X, y)
	if err != nil {
		return err
	}
	if kn.k > nSamples {
		return errors.NewValidationError("k", fmt.Sprintf("must not exceed the number of training samples (%d)", nSamples), kn.k)
	}

	xTrain := mat.DenseCopyOf(X)
	yTrain := mat.Col(nil, 0, y)
	if kn.aggregation == MajorityVote {
		kn.classes = uniqueSorted(yTrain)
	} else {
		kn.classes = nil
	}
	kn.xTrain = xTrain
	kn.yTrain = yTrain

	kn.state.SetFitted(nFeatures, nSamples)
	kn.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.NeighborsKey, kn.k,
		log.MetricKey, kn.metric.String(),
	)
	return nil
}

// neighbors は query に最も近い k 個の訓練サンプルの添字と距離を返す。
// 距離が等しい場合は訓練データ中の添字が小さい方が先に並ぶ。
func (kn *KNeighbors) neighbors(query []float64) ([]int, []float64) {
	n, _ := kn.xTrain.Dims()
	dists := make([]float64, n)
	for j := 0; j < n; j++ {
		dists[j] = kn.metric.Distance(query, kn.xTrain.RawRowView(j))
	}
	idx := make([]int, n)
	floats.ArgsortStable(dists, idx)
	return idx[:kn.k], dists[:kn.k]
}

// Kneighbors は各クエリ行の近傍の距離と添字を近い順に返す（いずれも m×k）
func (kn *KNeighbors) Kneighbors(X mat.Matrix) (*mat.Dense, [][]int, error) {
	op := kn.modelName() + ".Kneighbors"
	m, err := kn.checkQuery(op, "Kneighbors", X)
	if err != nil {
		return nil, nil, err
	}

	distances := mat.NewDense(m, kn.k, nil)
	indices := make([][]int, m)
	parallel.ParallelizeWithThreshold(m, parallel.DefaultThreshold, func(start, end int) {
		query := make([]float64, kn.state.NFeatures())
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			idx, d := kn.neighbors(query)
			indices[i] = idx
			distances.SetRow(i, d)
		}
	})
	return distances, indices, nil
}

// Predict は各クエリ行の予測値を m×1 の列行列で返す
func (kn *KNeighbors) Predict(X mat.Matrix) (mat.Matrix, error) {
	op := kn.modelName() + ".Predict"
	m, err := kn.checkQuery(op, "Predict", X)
	if err != nil {
		return nil, err
	}

	out := make([]float64, m)
	parallel.ParallelizeWithThreshold(m, parallel.DefaultThreshold, func(start, end int) {
		query := make([]float64, kn.state.NFeatures())
		labels := make([]float64, kn.k)
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			idx, _ := kn.neighbors(query)
			for r, j := range idx {
				labels[r] = kn.yTrain[j]
			}
			if kn.aggregation == Mean {
				out[i] = floats.Sum(labels) / float64(kn.k)
			} else {
				out[i] = majority(labels)
			}
		}
	})

	kn.logger.Debug("predict completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, m,
	)
	return mat.NewDense(m, 1, out), nil
}

// PredictProba は近傍の投票割合をクラスごとに返す（m×n_classes、列は Classes() 順）
func (kn *KNeighbors) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	op := kn.modelName() + ".PredictProba"
	if kn.aggregation != MajorityVote {
		return nil, errors.NewValueError(op, "probability estimates are only available for classification")
	}
	m, err := kn.checkQuery(op, "PredictProba", X)
	if err != nil {
		return nil, err
	}

	proba := mat.NewDense(m, len(kn.classes), nil)
	parallel.ParallelizeWithThreshold(m, parallel.DefaultThreshold, func(start, end int) {
		query := make([]float64, kn.state.NFeatures())
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			idx, _ := kn.neighbors(query)
			row := proba.RawRowView(i)
			for _, j := range idx {
				row[classIndex(kn.classes, kn.yTrain[j])] += 1 / float64(kn.k)
			}
		}
	})
	return proba, nil
}

// Score は分類器なら正解率、回帰器なら決定係数 R² を返す
func (kn *KNeighbors) Score(X, y mat.Matrix) (float64, error) {
	pred, err := kn.Predict(X)
	if err != nil {
		return 0, err
	}
	if kn.aggregation == Mean {
		return metrics.R2ScoreMatrix(y, pred)
	}
	return metrics.AccuracyMatrix(y, pred)
}

func (kn *KNeighbors) checkQuery(op, method string, X mat.Matrix) (int, error) {
	if err := kn.state.RequireFitted(kn.modelName(), method); err != nil {
		return 0, err
	}
	return checkX(op, X, kn.state.NFeatures())
}

// Classes は学習時に観測したラベルを昇順で返す。回帰器では nil
func (kn *KNeighbors) Classes() []float64 {
	if kn.classes == nil {
		return nil
	}
	out := make([]float64, len(kn.classes))
	copy(out, kn.classes)
	return out
}

// IsFitted returns whether the model has been fitted
func (kn *KNeighbors) IsFitted() bool {
	return kn.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (kn *KNeighbors) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": kn.k,
		"metric":      kn.metric.String(),
		"aggregation": kn.aggregation.String(),
	}
}

// String returns the string representation of the model
func (kn *KNeighbors) String() string {
	return fmt.Sprintf("%s(n_neighbors=%d, metric=%s)", kn.modelName(), kn.k, kn.metric)
}

// majority は近い順に並んだ labels の多数決を取る。
// 最多票が並んだ場合は、より近くに最初に現れたラベルが勝つ。
func majority(labels []float64) float64 {
	counts := make(map[float64]int, len(labels))
	for _, l := range labels {
		counts[l]++
	}
	best, bestCount := labels[0], 0
	for _, l := range labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}
