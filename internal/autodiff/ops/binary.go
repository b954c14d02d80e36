package ops

import "github.com/born-ml/vbll/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
//
// Backward: d(a+b)/da = d(a+b)/db = 1, so the output gradient flows to both
// inputs, reduced along any broadcast dimensions.
type AddOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for addition.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(outputGrad, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *AddOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor a + b.
func (op *AddOp) Output() *tensor.RawTensor { return op.output }

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for subtraction:
// grad_a = outputGrad, grad_b = -outputGrad.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	negGrad := backend.MulScalar(outputGrad, -1)
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(negGrad, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *SubOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor a - b.
func (op *SubOp) Output() *tensor.RawTensor { return op.output }

// MulOp represents element-wise multiplication: output = a * b.
//
// Backward: d(a*b)/da = b, d(a*b)/db = a.
type MulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for multiplication.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Mul(outputGrad, b)
	gradB := backend.Mul(outputGrad, a)
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *MulOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor a * b.
func (op *MulOp) Output() *tensor.RawTensor { return op.output }

// DivOp represents element-wise division: output = a / b.
//
// Backward: d(a/b)/da = 1/b, d(a/b)/db = -a/b².
type DivOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	// grad_a = outputGrad / b
	gradA := backend.Div(outputGrad, b)

	// grad_b = -outputGrad * a / b²
	gradB := backend.Mul(outputGrad, a)
	gradB = backend.Div(gradB, backend.Mul(b, b))
	gradB = backend.MulScalar(gradB, -1)

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *DivOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor a / b.
func (op *DivOp) Output() *tensor.RawTensor { return op.output }
