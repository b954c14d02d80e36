package models

import (
	"github.com/born-ml/vbll/internal/autodiff"
	"github.com/born-ml/vbll/internal/tensor"
	"github.com/born-ml/vbll/posteriors"
)

// Model is the three-operation contract consumed by a Bayesian
// optimization driver.
type Model[B autodiff.BackwardCapable] interface {
	// Fit trains the model in place on [N, D] inputs and [N, K] targets.
	Fit(trainX, trainY *tensor.Tensor[float64, B], settings *OptimizationSettings[B], initParams map[string]*tensor.RawTensor) error

	// Posterior returns the joint predictive distribution at query points.
	Posterior(x *tensor.Tensor[float64, B]) (*posteriors.BLLPosterior, error)

	// Sample realizes a concrete function from the weight posterior.
	Sample(sampleShape ...int) (*SampledFunction[B], error)
}

// VBLLModel is the concrete variational Bayesian last-layer surrogate:
// the shared fit/posterior orchestration plus posterior-function sampling.
type VBLLModel[B autodiff.BackwardCapable] struct {
	*BLLModelBase[B]
}

// NewVBLLModel creates a VBLL surrogate model around a network.
func NewVBLLModel[B autodiff.BackwardCapable](network *VBLLNetwork[B], backend B, opts ...Option[B]) *VBLLModel[B] {
	return &VBLLModel[B]{
		BLLModelBase: NewBLLModelBase(network, backend, opts...),
	}
}

// Sample draws weights from the head's posterior and binds them to the
// shared backbone. Without arguments the returned function maps [M, D] to
// [M, K]; with one argument s it maps [M, D] to [s, M, K].
func (m *VBLLModel[B]) Sample(sampleShape ...int) (*SampledFunction[B], error) {
	return m.Network().SamplePosteriorFunction(sampleShape...), nil
}
