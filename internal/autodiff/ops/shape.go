package ops

import "github.com/born-ml/vbll/internal/tensor"

// ReshapeOp represents a reshape operation.
//
// Reshape must be recorded on the tape: without it, gradients computed for
// the reshaped tensor would never reach the original parameter (for example
// a bias reshaped to [1, out] for broadcasting).
type ReshapeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward reshapes the gradient back to the input's shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// Inputs returns the input tensor.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor { return op.output }

// TransposeOp represents an axis permutation.
//
// The backend copies data on transpose, so the output is a new tensor and the
// operation must be recorded for gradients to reach the original. The
// backward pass applies the inverse permutation to the gradient.
type TransposeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		axes:   append([]int(nil), axes...),
	}
}

// Backward applies the inverse axis permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs returns the input tensor.
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor { return op.output }
