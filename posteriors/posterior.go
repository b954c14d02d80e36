// Package posteriors provides the predictive distribution types returned by
// surrogate models: a Cholesky-based multivariate normal and the
// last-layer posterior wrapper carrying model metadata.
package posteriors

// Posterior is the capability set acquisition functions need from a
// predictive distribution.
type Posterior interface {
	// Mean returns the mean vector.
	Mean() []float64

	// Variance returns the marginal variances (the covariance diagonal).
	Variance() []float64

	// Rsample draws one joint sample from the distribution.
	Rsample() ([]float64, error)
}
