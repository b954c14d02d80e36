package ops

import "github.com/born-ml/vbll/internal/tensor"

// ExpOp represents the element-wise exponential: output = exp(input).
//
// Backward: d(exp(x))/dx = exp(x) = output.
type ExpOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward computes grad_x = outputGrad * exp(x).
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns the input tensor.
func (op *ExpOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp represents the element-wise natural logarithm: output = log(input).
//
// Backward: d(log(x))/dx = 1/x. Input values must be positive.
type LogOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward computes grad_x = outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// Inputs returns the input tensor.
func (op *LogOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// SqrtOp represents the element-wise square root: output = sqrt(input).
//
// Backward: d(sqrt(x))/dx = 1 / (2*sqrt(x)) = 1 / (2*output).
type SqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward computes grad_x = outputGrad / (2 * sqrt(x)).
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	denom := backend.MulScalar(op.output, 2)
	return []*tensor.RawTensor{backend.Div(outputGrad, denom)}
}

// Inputs returns the input tensor.
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }

// ScaleOp represents multiplication by a scalar constant: output = c * input.
//
// Backward: grad_x = c * outputGrad.
type ScaleOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scalar float64
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(input, output *tensor.RawTensor, scalar float64) *ScaleOp {
	return &ScaleOp{inputs: []*tensor.RawTensor{input}, output: output, scalar: scalar}
}

// Backward computes grad_x = scalar * outputGrad.
func (op *ScaleOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// Inputs returns the input tensor.
func (op *ScaleOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *ScaleOp) Output() *tensor.RawTensor { return op.output }

// ShiftOp represents addition of a scalar constant: output = input + c.
//
// Backward: the gradient passes through unchanged.
type ShiftOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewShiftOp creates a new ShiftOp.
func NewShiftOp(input, output *tensor.RawTensor) *ShiftOp {
	return &ShiftOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward passes the gradient through.
func (op *ShiftOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad}
}

// Inputs returns the input tensor.
func (op *ShiftOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *ShiftOp) Output() *tensor.RawTensor { return op.output }
