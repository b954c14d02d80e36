// Package cpu implements the pure-Go CPU backend.
//
// The backend operates on RawTensors and implements the tensor.Backend
// interface. Binary operations support NumPy-style broadcasting; all
// operations allocate fresh output tensors (no in-place aliasing), which the
// autodiff decorator relies on to keep recorded inputs intact.
package cpu

import (
	"math"

	"github.com/born-ml/vbll/internal/tensor"
)

// CPUBackend is the pure Go implementation of tensor operations.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}

// Add performs element-wise addition with broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(a, b, func(x, y float64) float64 { return x / y })
}

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return unaryOp(x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar to every element.
func (c *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return unaryOp(x, func(v float64) float64 { return v + scalar })
}

// Exp computes the element-wise exponential.
func (c *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (c *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, math.Log)
}

// Sqrt computes the element-wise square root.
func (c *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, math.Sqrt)
}
