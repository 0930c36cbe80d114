package decomposition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

var _ model.InverseTransformer = (*PCA)(nil)

// diagonalData は分散4.0の方向 [1,1]/√2 と分散0.2の方向 [1,-1]/√2 を持つ
func diagonalData() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		-1, -1,
		1, 1,
		-2, -2,
		2, 2,
		0.5, -0.5,
		-0.5, 0.5,
	})
}

func TestPCAFitKnownDirections(t *testing.T) {
	pca, err := NewPCA(2)
	require.NoError(t, err)
	require.NoError(t, pca.Fit(diagonalData()))

	assert.InDeltaSlice(t, []float64{0, 0}, pca.Mean(), 1e-12)
	assert.InDeltaSlice(t, []float64{4.0, 0.2}, pca.ExplainedVariance(), 1e-9)
	assert.InDeltaSlice(t, []float64{4.0 / 4.2, 0.2 / 4.2}, pca.ExplainedVarianceRatio(), 1e-9)

	first := mat.Row(nil, 0, pca.Components())
	assert.InDelta(t, 1/math.Sqrt2, first[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, first[1], 1e-9)

	second := mat.Row(nil, 1, pca.Components())
	assert.InDelta(t, 1/math.Sqrt2, math.Abs(second[0]), 1e-9)
	assert.InDelta(t, -second[0], second[1], 1e-9)
}

func TestPCAComponentsOrthonormal(t *testing.T) {
	X := mat.NewDense(8, 4, []float64{
		2.5, 2.4, 0.5, 1.0,
		0.5, 0.7, 1.5, 2.1,
		2.2, 2.9, 0.3, 0.2,
		1.9, 2.2, 1.1, 1.7,
		3.1, 3.0, 0.9, 0.4,
		2.3, 2.7, 2.0, 1.3,
		2.0, 1.6, 0.1, 0.9,
		1.0, 1.1, 1.6, 2.8,
	})
	pca, err := NewPCA(3)
	require.NoError(t, err)
	require.NoError(t, pca.Fit(X))

	C := pca.Components()
	r, c := C.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 4, c)

	for i := 0; i < r; i++ {
		ri := mat.Row(nil, i, C)
		assert.InDelta(t, 1.0, floats.Norm(ri, 2), 1e-9, "component %d is not unit norm", i)

		// 絶対値最大の要素は正
		abs := make([]float64, len(ri))
		for j, v := range ri {
			abs[j] = math.Abs(v)
		}
		assert.Greater(t, ri[floats.MaxIdx(abs)], 0.0)

		for k := i + 1; k < r; k++ {
			assert.InDelta(t, 0.0, floats.Dot(ri, mat.Row(nil, k, C)), 1e-9,
				"components %d and %d are not orthogonal", i, k)
		}
	}

	ev := pca.ExplainedVariance()
	for i := 1; i < len(ev); i++ {
		assert.GreaterOrEqual(t, ev[i-1], ev[i])
	}
}

func TestPCARoundTrip(t *testing.T) {
	X := mat.NewDense(5, 3, []float64{
		1, 2, 3,
		4, 0, 1,
		2, 5, 2,
		0, 1, 7,
		3, 3, 3,
	})
	pca, err := NewPCA(3)
	require.NoError(t, err)

	Z, err := pca.FitTransform(X)
	require.NoError(t, err)
	zr, zc := Z.Dims()
	assert.Equal(t, 5, zr)
	assert.Equal(t, 3, zc)

	back, err := pca.InverseTransform(Z)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-9))
}

func TestPCATransformReducesDimension(t *testing.T) {
	pca, err := NewPCA(1)
	require.NoError(t, err)
	require.NoError(t, pca.Fit(diagonalData()))

	Z, err := pca.Transform(mat.NewDense(2, 2, []float64{1, 1, 1, -1}))
	require.NoError(t, err)
	_, c := Z.Dims()
	require.Equal(t, 1, c)
	assert.InDelta(t, math.Sqrt2, Z.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0, Z.At(1, 0), 1e-9)
}

func TestPCADeterministic(t *testing.T) {
	X := diagonalData()
	p1, err := NewPCA(2)
	require.NoError(t, err)
	p2, err := NewPCA(2)
	require.NoError(t, err)

	z1, err := p1.FitTransform(X)
	require.NoError(t, err)
	z2, err := p2.FitTransform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(z1, z2))
}

func TestPCAErrors(t *testing.T) {
	t.Run("invalid n_components", func(t *testing.T) {
		pca, err := NewPCA(0)
		assert.Nil(t, pca)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("n_components exceeds features", func(t *testing.T) {
		pca, err := NewPCA(3)
		require.NoError(t, err)
		err = pca.Fit(diagonalData())
		var ve *errors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "n_components", ve.ParamName)
		assert.False(t, pca.IsFitted())
	})

	t.Run("single sample", func(t *testing.T) {
		pca, err := NewPCA(1)
		require.NoError(t, err)
		err = pca.Fit(mat.NewDense(1, 2, []float64{1, 2}))
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("rank deficient", func(t *testing.T) {
		pca, err := NewPCA(2)
		require.NoError(t, err)
		err = pca.Fit(mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3}))
		var nie *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &nie), "expected NumericalInstabilityError, got %v", err)
	})

	t.Run("not fitted", func(t *testing.T) {
		pca, err := NewPCA(1)
		require.NoError(t, err)
		_, err = pca.Transform(diagonalData())
		var nfe *errors.NotFittedError
		assert.True(t, errors.As(err, &nfe))
		_, err = pca.InverseTransform(mat.NewDense(1, 1, []float64{0}))
		assert.True(t, errors.As(err, &nfe))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		pca, err := NewPCA(1)
		require.NoError(t, err)
		require.NoError(t, pca.Fit(diagonalData()))
		_, err = pca.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
		var de *errors.DimensionError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 2, de.Expected)
		assert.Equal(t, 3, de.Got)
	})

	t.Run("non finite input", func(t *testing.T) {
		pca, err := NewPCA(1)
		require.NoError(t, err)
		err = pca.Fit(mat.NewDense(2, 2, []float64{1, math.NaN(), 2, 3}))
		var nie *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &nie))
	})
}

func TestPCAFailedFitKeepsState(t *testing.T) {
	pca, err := NewPCA(2)
	require.NoError(t, err)
	require.NoError(t, pca.Fit(diagonalData()))
	before := pca.Components()

	require.Error(t, pca.Fit(mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})))
	assert.True(t, pca.IsFitted())
	assert.True(t, mat.Equal(before, pca.Components()))
}
