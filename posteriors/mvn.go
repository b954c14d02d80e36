package posteriors

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// maxCholeskyAttempts bounds the jitter escalation when a covariance is
// numerically on the edge of positive definiteness.
const maxCholeskyAttempts = 5

// MultivariateNormal is a joint Gaussian over a vector of predictions.
//
// Sampling factorizes the covariance once with a Cholesky decomposition and
// reuses the factor for subsequent draws. Covariances assembled from a
// last-layer posterior are positive definite whenever the per-point
// variances are positive, but a small diagonal jitter is escalated on
// factorization failure to absorb accumulated round-off.
type MultivariateNormal struct {
	mean []float64
	cov  *mat.SymDense
	chol *mat.Cholesky
}

// NewMultivariateNormal creates a joint Gaussian from a mean vector and a
// covariance matrix. The inputs are copied.
func NewMultivariateNormal(mean []float64, cov *mat.SymDense) (*MultivariateNormal, error) {
	n := len(mean)
	if n == 0 {
		return nil, fmt.Errorf("posteriors: empty mean vector")
	}
	if cov.SymmetricDim() != n {
		return nil, fmt.Errorf("posteriors: covariance is %dx%d but mean has %d entries",
			cov.SymmetricDim(), cov.SymmetricDim(), n)
	}

	meanCopy := make([]float64, n)
	copy(meanCopy, mean)

	covCopy := mat.NewSymDense(n, nil)
	covCopy.CopySym(cov)

	return &MultivariateNormal{mean: meanCopy, cov: covCopy}, nil
}

// Dim returns the dimensionality of the distribution.
func (m *MultivariateNormal) Dim() int {
	return len(m.mean)
}

// Mean returns a copy of the mean vector.
func (m *MultivariateNormal) Mean() []float64 {
	out := make([]float64, len(m.mean))
	copy(out, m.mean)
	return out
}

// Variance returns the covariance diagonal.
func (m *MultivariateNormal) Variance() []float64 {
	n := len(m.mean)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.cov.At(i, i)
	}
	return out
}

// CovarianceMatrix returns a copy of the covariance matrix.
func (m *MultivariateNormal) CovarianceMatrix() *mat.SymDense {
	out := mat.NewSymDense(len(m.mean), nil)
	out.CopySym(m.cov)
	return out
}

// Rsample draws one joint sample: x = mean + L·z with z ~ N(0, I) and
// LLᵀ the Cholesky factorization of the covariance.
func (m *MultivariateNormal) Rsample() ([]float64, error) {
	chol, err := m.cholesky()
	if err != nil {
		return nil, err
	}

	n := len(m.mean)
	z := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		//nolint:gosec // math/rand for posterior sampling (not security-critical)
		z.SetVec(i, rand.NormFloat64())
	}

	var l mat.TriDense
	chol.LTo(&l)

	var x mat.VecDense
	x.MulVec(&l, z)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.mean[i] + x.AtVec(i)
	}
	return out, nil
}

// cholesky factorizes the covariance lazily, escalating a diagonal jitter
// on failure.
func (m *MultivariateNormal) cholesky() (*mat.Cholesky, error) {
	if m.chol != nil {
		return m.chol, nil
	}

	n := len(m.mean)
	jitter := 0.0
	for attempt := 0; attempt < maxCholeskyAttempts; attempt++ {
		target := m.cov
		if jitter > 0 {
			jittered := mat.NewSymDense(n, nil)
			jittered.CopySym(m.cov)
			for i := 0; i < n; i++ {
				jittered.SetSym(i, i, jittered.At(i, i)+jitter)
			}
			target = jittered
		}

		var chol mat.Cholesky
		if chol.Factorize(target) {
			m.chol = &chol
			return m.chol, nil
		}

		if jitter == 0 {
			jitter = 1e-10
		} else {
			jitter *= 10
		}
	}

	return nil, fmt.Errorf("posteriors: covariance is not positive definite (jitter up to %g)", jitter)
}
