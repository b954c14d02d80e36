package posteriors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
)

func diagSym(diag []float64) *mat.SymDense {
	n := len(diag)
	s := mat.NewSymDense(n, nil)
	for i, v := range diag {
		s.SetSym(i, i, v)
	}
	return s
}

func TestNewMultivariateNormalValidation(t *testing.T) {
	_, err := NewMultivariateNormal(nil, mat.NewSymDense(1, nil))
	assert.ErrorContains(t, err, "empty mean")

	_, err = NewMultivariateNormal([]float64{1, 2}, mat.NewSymDense(3, nil))
	assert.ErrorContains(t, err, "covariance")
}

func TestMultivariateNormalAccessors(t *testing.T) {
	mean := []float64{1, -2, 3}
	cov := diagSym([]float64{0.5, 1.0, 2.0})

	mvn, err := NewMultivariateNormal(mean, cov)
	require.NoError(t, err)

	assert.Equal(t, 3, mvn.Dim())
	assert.Equal(t, mean, mvn.Mean())
	assert.Equal(t, []float64{0.5, 1.0, 2.0}, mvn.Variance())

	got := mvn.CovarianceMatrix()
	assert.InDelta(t, 0.5, got.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, got.At(0, 1), 1e-12)
}

func TestMultivariateNormalInputsAreCopied(t *testing.T) {
	mean := []float64{1, 2}
	cov := diagSym([]float64{1, 1})

	mvn, err := NewMultivariateNormal(mean, cov)
	require.NoError(t, err)

	mean[0] = 99
	cov.SetSym(0, 0, 99)

	assert.Equal(t, 1.0, mvn.Mean()[0])
	assert.Equal(t, 1.0, mvn.Variance()[0])
}

func TestRsampleStatistics(t *testing.T) {
	mean := []float64{2, -1}
	mvn, err := NewMultivariateNormal(mean, diagSym([]float64{0.01, 0.04}))
	require.NoError(t, err)

	const draws = 2000
	sum := make([]float64, 2)
	for i := 0; i < draws; i++ {
		x, err := mvn.Rsample()
		require.NoError(t, err)
		require.Len(t, x, 2)
		sum[0] += x[0]
		sum[1] += x[1]
	}

	assert.InDelta(t, 2.0, sum[0]/draws, 0.05)
	assert.InDelta(t, -1.0, sum[1]/draws, 0.05)
}

func TestRsampleJitterRecovery(t *testing.T) {
	// Singular covariance: factorization only succeeds once jitter is added.
	cov := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	mvn, err := NewMultivariateNormal([]float64{0, 0}, cov)
	require.NoError(t, err)

	_, err = mvn.Rsample()
	assert.NoError(t, err)
}

func TestBLLPosteriorValidation(t *testing.T) {
	mvn, err := NewMultivariateNormal([]float64{0, 0}, diagSym([]float64{1, 1}))
	require.NoError(t, err)

	_, err = NewBLLPosterior(nil, 2, 1, false)
	assert.ErrorContains(t, err, "no distributions")

	_, err = NewBLLPosterior([]*MultivariateNormal{mvn, mvn}, 2, 1, false)
	assert.ErrorContains(t, err, "exactly one")

	_, err = NewBLLPosterior([]*MultivariateNormal{mvn}, 3, 1, false)
	assert.ErrorContains(t, err, "dim")
}

func TestBLLPosteriorUnbatched(t *testing.T) {
	mvn, err := NewMultivariateNormal([]float64{1, 2, 3, 4}, diagSym([]float64{1, 2, 3, 4}))
	require.NoError(t, err)

	p, err := NewBLLPosterior([]*MultivariateNormal{mvn}, 2, 2, false)
	require.NoError(t, err)

	assert.False(t, p.Batched())
	assert.Equal(t, 1, p.BatchSize())
	assert.Equal(t, 2, p.NumPoints())
	assert.Equal(t, 2, p.NumOutputs())
	assert.Equal(t, []float64{1, 2, 3, 4}, p.Mean())
	assert.Equal(t, []float64{1, 2, 3, 4}, p.Variance())
	assert.Same(t, mvn, p.Joint())

	draw, err := p.Rsample()
	require.NoError(t, err)
	assert.Len(t, draw, 4)
}

func TestBLLPosteriorBatched(t *testing.T) {
	a, err := NewMultivariateNormal([]float64{1, 2}, diagSym([]float64{1, 1}))
	require.NoError(t, err)
	b, err := NewMultivariateNormal([]float64{3, 4}, diagSym([]float64{1, 1}))
	require.NoError(t, err)

	p, err := NewBLLPosterior([]*MultivariateNormal{a, b}, 2, 1, true)
	require.NoError(t, err)

	assert.True(t, p.Batched())
	assert.Equal(t, 2, p.BatchSize())
	assert.Equal(t, []float64{1, 2, 3, 4}, p.Mean())
	assert.Same(t, b, p.At(1))
	assert.Panics(t, func() { p.Joint() })

	draw, err := p.Rsample()
	require.NoError(t, err)
	assert.Len(t, draw, 4)
}
