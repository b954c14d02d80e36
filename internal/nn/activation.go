package nn

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// ReLUBackend is implemented by backends that provide a fused ReLU.
type ReLUBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

// ELUBackend is implemented by backends that provide a fused ELU.
type ELUBackend interface {
	ELU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor
}

// TanhBackend is implemented by backends that provide a fused Tanh.
type TanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies the rectified linear unit: max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	backend := input.Backend()
	rb, ok := any(backend).(ReLUBackend)
	if !ok {
		panic(fmt.Sprintf("ReLU.Forward: backend %s does not support ReLU", backend.Name()))
	}
	return tensor.New[float64, B](rb.ReLU(input.Raw()), backend)
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for ReLU.
func (r *ReLU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error { return nil }

// ELU applies the exponential linear unit:
//
//	x               if x > 0
//	α*(exp(x) - 1)  otherwise
//
// ELU is the default activation for surrogate backbones: its smooth negative
// tail keeps feature gradients informative for uncertainty estimation.
type ELU[B tensor.Backend] struct {
	alpha float64
}

// NewELU creates an ELU activation module. Alpha ≤ 0 defaults to 1.0.
func NewELU[B tensor.Backend](alpha float64) *ELU[B] {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &ELU[B]{alpha: alpha}
}

// Alpha returns the negative-tail scale.
func (e *ELU[B]) Alpha() float64 { return e.alpha }

// Forward applies ELU element-wise.
func (e *ELU[B]) Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	backend := input.Backend()
	eb, ok := any(backend).(ELUBackend)
	if !ok {
		panic(fmt.Sprintf("ELU.Forward: backend %s does not support ELU", backend.Name()))
	}
	return tensor.New[float64, B](eb.ELU(input.Raw(), e.alpha), backend)
}

// Parameters returns an empty slice (ELU has no trainable parameters).
func (e *ELU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (e *ELU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for ELU.
func (e *ELU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error { return nil }

// Tanh applies the hyperbolic tangent activation.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	backend := input.Backend()
	tb, ok := any(backend).(TanhBackend)
	if !ok {
		panic(fmt.Sprintf("Tanh.Forward: backend %s does not support Tanh", backend.Name()))
	}
	return tensor.New[float64, B](tb.Tanh(input.Raw()), backend)
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for Tanh.
func (t *Tanh[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error { return nil }
