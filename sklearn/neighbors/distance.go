package neighbors

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Metric は近傍探索に使う距離関数
type Metric int

const (
	// L2 はユークリッド距離
	L2 Metric = iota
	// L1 はマンハッタン距離
	L1
)

// String returns the canonical name of the metric.
func (m Metric) String() string {
	switch m {
	case L2:
		return "l2"
	case L1:
		return "l1"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Distance は a と b の距離を返す。長さが異なる場合はpanicする（gonum/floatsの規約）
func (m Metric) Distance(a, b []float64) float64 {
	switch m {
	case L1:
		return ManhattanDistance(a, b)
	default:
		return EuclideanDistance(a, b)
	}
}

func (m Metric) valid() bool {
	return m == L1 || m == L2
}

// ParseMetric は "l1"/"manhattan" と "l2"/"euclidean" を受け付ける
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "l2", "euclidean":
		return L2, nil
	case "l1", "manhattan":
		return L1, nil
	default:
		return 0, errors.NewValidationError("metric", "must be one of l1, manhattan, l2, euclidean", name)
	}
}

// EuclideanDistance は sqrt(Σ(a_i - b_i)²) を返す
func EuclideanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// ManhattanDistance は Σ|a_i - b_i| を返す
func ManhattanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}
