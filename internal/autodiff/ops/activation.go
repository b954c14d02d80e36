package ops

import "github.com/born-ml/vbll/internal/tensor"

// ReLUOp represents the rectified linear unit: output = max(0, input).
//
// Backward: the gradient passes through where the input was positive and is
// zero elsewhere.
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward masks the gradient by the sign of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0]
	grad := zerosLike(in, backend)

	switch in.DType() {
	case tensor.Float64:
		x, g, out := in.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i, v := range x {
			if v > 0 {
				out[i] = g[i]
			}
		}
	case tensor.Float32:
		x, g, out := in.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i, v := range x {
			if v > 0 {
				out[i] = g[i]
			}
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor.
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// ELUOp represents the exponential linear unit:
//
//	output = x            if x > 0
//	output = α*(exp(x)-1) otherwise
//
// Backward: d/dx = 1 for x > 0, α*exp(x) = output + α otherwise.
type ELUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	alpha  float64
}

// NewELUOp creates a new ELUOp.
func NewELUOp(input, output *tensor.RawTensor, alpha float64) *ELUOp {
	return &ELUOp{inputs: []*tensor.RawTensor{input}, output: output, alpha: alpha}
}

// Backward computes the ELU gradient from the saved output.
func (op *ELUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0]
	grad := zerosLike(in, backend)

	switch in.DType() {
	case tensor.Float64:
		x, y, g, out := in.AsFloat64(), op.output.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i, v := range x {
			if v > 0 {
				out[i] = g[i]
			} else {
				out[i] = g[i] * (y[i] + op.alpha)
			}
		}
	case tensor.Float32:
		x, y, g, out := in.AsFloat32(), op.output.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		alpha := float32(op.alpha)
		for i, v := range x {
			if v > 0 {
				out[i] = g[i]
			} else {
				out[i] = g[i] * (y[i] + alpha)
			}
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor.
func (op *ELUOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *ELUOp) Output() *tensor.RawTensor { return op.output }

// TanhOp represents the hyperbolic tangent activation.
//
// Backward: d(tanh(x))/dx = 1 - tanh(x)² = 1 - output².
type TanhOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward computes grad_x = outputGrad * (1 - output²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	ySquared := backend.Mul(op.output, op.output)
	oneMinus := backend.AddScalar(backend.MulScalar(ySquared, -1), 1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, oneMinus)}
}

// Inputs returns the input tensor.
func (op *TanhOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
