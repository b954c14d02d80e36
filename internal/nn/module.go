// Package nn implements neural network modules.
//
// This package provides the building blocks used by surrogate networks:
//   - Module interface: base interface for all NN components
//   - Parameter: trainable parameters
//   - Linear: fully connected layer
//   - Activations: ELU, ReLU, Tanh
//   - Sequential: container for stacking layers
//
// Modules operate in float64: surrogate models for Bayesian optimization
// need double precision for stable posterior covariances.
package nn

import (
	"github.com/born-ml/vbll/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build feature extractors:
//
//	backbone := nn.NewSequential[B](
//	    nn.NewLinear(2, 64, backend),
//	    nn.NewELU[B](1.0),
//	    nn.NewLinear(64, 64, backend),
//	    nn.NewELU[B](1.0),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// For example, Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameter values from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
