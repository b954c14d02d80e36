// Package autodiff implements automatic differentiation using the decorator
// pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient
// tracking through a GradientTape:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op (Add, Mul, MatMul, ...) implements its
//     backward pass
//   - Reverse-mode AD: gradients are computed by walking the tape backwards
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2.0}, tensor.Shape{1}, backend)
//	y := x.Mul(x) // y = x²
//	grads := autodiff.Backward(y, backend)
package autodiff

import (
	"math"

	"github.com/born-ml/vbll/internal/autodiff/ops"
	"github.com/born-ml/vbll/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a
// GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control (start/stop recording,
// clearing between iterations).
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, result))
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, result))
	return result
}

// BatchMatMul performs batched matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.BatchMatMul(x, y)
	b.tape.Record(ops.NewBatchMatMulOp(x, y, result))
	return result
}

// Reshape reshapes a tensor and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.tape.Record(ops.NewReshapeOp(t, result))
	return result
}

// Transpose transposes a tensor and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	// Normalize default axes (reverse all dimensions) so the recorded
	// operation can invert the permutation.
	if len(axes) == 0 {
		ndim := len(t.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)
	b.tape.Record(ops.NewTransposeOp(t, result, axes))
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	b.tape.Record(ops.NewScaleOp(x, result, scalar))
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	b.tape.Record(ops.NewShiftOp(x, result))
	return result
}

// Exp computes the element-wise exponential and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Exp(x)
	b.tape.Record(ops.NewExpOp(x, result))
	return result
}

// Log computes the element-wise natural logarithm and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Log(x)
	b.tape.Record(ops.NewLogOp(x, result))
	return result
}

// Sqrt computes the element-wise square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sqrt(x)
	b.tape.Record(ops.NewSqrtOp(x, result))
	return result
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, result))
	return result
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(x, dim, keepDim)
	b.tape.Record(ops.NewSumDimOp(x, result, dim, keepDim))
	return result
}

// Cat concatenates tensors along a dimension.
//
// Cat is used for assembling inference-time results (for example stacking
// posterior function draws) and is not recorded on the tape.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Cat(tensors, dim)
}

// ReLU applies the rectified linear unit and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := applyUnary(x, b.Device(), func(v float64) float64 {
		return math.Max(0, v)
	})
	b.tape.Record(ops.NewReLUOp(x, result))
	return result
}

// ELU applies the exponential linear unit and records the operation.
func (b *AutodiffBackend[B]) ELU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor {
	result := applyUnary(x, b.Device(), func(v float64) float64 {
		if v > 0 {
			return v
		}
		return alpha * (math.Exp(v) - 1)
	})
	b.tape.Record(ops.NewELUOp(x, result, alpha))
	return result
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result := applyUnary(x, b.Device(), math.Tanh)
	b.tape.Record(ops.NewTanhOp(x, result))
	return result
}

// applyUnary evaluates f element-wise into a fresh tensor.
func applyUnary(x *tensor.RawTensor, device tensor.Device, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), device)
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = f(v)
		}
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(f(float64(v)))
		}
	}

	return result
}
