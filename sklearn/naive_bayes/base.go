// Package naive_bayes はガウス分布・多項分布を仮定した単純ベイズ分類器を提供する。
//
// どちらのモデルもクラスごと・特徴量ごとのパラメータを n_classes×n_features の
// 密行列で保持し、クラスの並びは Fit 時に昇順で確定する。
package naive_bayes

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

func newLogger(modelName string) log.Logger {
	return log.GetLoggerWithName("naive_bayes").With(
		log.ModelNameKey, modelName,
		log.EstimatorIDKey, uuid.NewString(),
	)
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

// encodeLabels はラベルを昇順のクラス一覧に変換し、各行のクラス番号と
// クラスごとのサンプル数を返す
func encodeLabels(y []float64) (classes []float64, index []int, counts []int) {
	seen := make(map[float64]struct{}, len(y))
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)

	index = make([]int, len(y))
	counts = make([]int, len(classes))
	for i, v := range y {
		c := sort.SearchFloat64s(classes, v)
		index[i] = c
		counts[c]++
	}
	return classes, index, counts
}

// argmaxRows は各行の最大値の列に対応するクラスを返す。同値の場合は先頭が勝つ
func argmaxRows(jll *mat.Dense, classes []float64) *mat.Dense {
	rows, _ := jll.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, classes[floats.MaxIdx(jll.RawRowView(i))])
	}
	return out
}

// normalizeLog は各行から log-sum-exp を引き、対数事後確率にする
func normalizeLog(jll *mat.Dense) *mat.Dense {
	rows, cols := jll.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := jll.RawRowView(i)
		norm := errors.LogSumExp(row)
		dst := out.RawRowView(i)
		for j, v := range row {
			dst[j] = v - norm
		}
	}
	return out
}

func expDense(logProba *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, logProba)
	return &out
}

func copyFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
