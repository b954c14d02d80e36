package nn

import (
	"github.com/born-ml/vbll/internal/tensor"
)

// Parameter is a trainable tensor tracked by an optimizer.
//
// Parameters hold the weights of a module together with the gradient
// computed in the most recent backward pass.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float64, B]
	grad   *tensor.Tensor[float64, B]
}

// NewParameter creates a trainable parameter from an initialized tensor.
// The gradient is allocated lazily on the first backward pass.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float64, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name (e.g., "weight", "bias").
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float64, B] {
	return p.tensor
}

// Grad returns the gradient tensor, or nil if no backward pass has run
// since the last ZeroGrad.
func (p *Parameter[B]) Grad() *tensor.Tensor[float64, B] {
	return p.grad
}

// SetGrad stores the gradient computed for this parameter.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float64, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient. Call before every training step so
// gradients from previous iterations do not accumulate.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
