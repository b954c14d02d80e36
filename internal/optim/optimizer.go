// Package optim implements gradient-based optimizers for training surrogate
// models: AdamW with decoupled weight decay, SGD with momentum, and global
// gradient norm clipping.
//
// Optimizers operate on parameter groups so that different parts of a model
// can use different regularization. A variational head must not be weight
// decayed (its parameters define a posterior, not point weights), while the
// backbone usually is.
package optim

import (
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// Kwarg keys recognized by the optimizer constructors.
const (
	KwargBeta1    = "beta1"
	KwargBeta2    = "beta2"
	KwargEps      = "eps"
	KwargMomentum = "momentum"
)

// ParamGroup is a set of parameters sharing optimizer settings.
type ParamGroup[B tensor.Backend] struct {
	Params      []*nn.Parameter[B]
	WeightDecay float64
}

// Optimizer updates parameters from gradients computed by a backward pass.
type Optimizer[B tensor.Backend] interface {
	// Step applies one update using the gradients keyed by raw tensor.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears gradients on all managed parameters.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}

// Constructor builds an optimizer from parameter groups, a learning rate,
// and optimizer-specific keyword arguments. It matches the shape of the
// training configuration so callers can swap optimizers without changing
// the training loop.
type Constructor[B tensor.Backend] func(groups []ParamGroup[B], lr float64, kwargs map[string]float64, backend B) Optimizer[B]

// getGradient looks up the gradient for a parameter, preferring the explicit
// gradient set on the parameter over the backward map.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if g := param.Grad(); g != nil {
		return g.Raw()
	}
	return grads[param.Tensor().Raw()]
}

// kwarg reads a keyword argument with a fallback default.
func kwarg(kwargs map[string]float64, key string, def float64) float64 {
	if v, ok := kwargs[key]; ok {
		return v
	}
	return def
}
