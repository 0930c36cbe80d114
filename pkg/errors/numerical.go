package errors

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxReportedValues はNumericalInstabilityErrorに含める値の上限
const maxReportedValues = 10

// nearZero はSafeDivideがゼロとみなす分母の大きさ
const nearZero = 1e-10

// CheckNumericalStability はスライスにNaNまたはInfが含まれていればエラーを返します。
// 勾配降下法の各反復で重みを検査するために使います。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	if floats.HasNaN(values) || hasInf(values) {
		return NewNumericalInstabilityError(operation, append([]float64(nil), values...), iteration)
	}
	return nil
}

// CheckScalar は単一の値を検査します。
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix は行列の全要素を検査し、NaNまたはInfを含む最初の行の問題値を報告します。
func CheckMatrix(operation string, m mat.Matrix, iteration int) error {
	rows, cols := m.Dims()
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, m)
		var bad []float64
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				bad = append(bad, v)
				if len(bad) == maxReportedValues {
					break
				}
			}
		}
		if len(bad) > 0 {
			return NewNumericalInstabilityError(operation, bad, iteration)
		}
	}
	return nil
}

// SafeDivide は分母がほぼゼロなら0を返す除算です。
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < nearZero {
		return 0
	}
	return numerator / denominator
}

// ClipValue は値を [lo, hi] に収めます。
func ClipValue(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

// LogSumExp は log(Σexp(values)) をオーバーフローせずに計算します。
// 空のスライスまたは全要素が -Inf なら -Inf を返します。
func LogSumExp(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	maxVal := floats.Max(values)
	if math.IsInf(maxVal, -1) {
		return maxVal
	}

	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}

func hasInf(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
