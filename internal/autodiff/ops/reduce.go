package ops

import "github.com/born-ml/vbll/internal/tensor"

// SumOp represents a full reduction to a scalar: output = sum(input).
//
// Backward: every input element contributed with weight 1, so the scalar
// gradient is broadcast back over the input's shape.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0]
	return []*tensor.RawTensor{broadcastTo(outputGrad, in.Shape(), in.DType(), backend)}
}

// Inputs returns the input tensor.
func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the scalar output tensor.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp represents a sum along one dimension.
//
// Backward: the gradient is broadcast back along the reduced dimension. When
// keepDim was false, the dropped dimension is first re-inserted with size 1
// so that broadcasting lines the axes up.
type SumDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		inputs:  []*tensor.RawTensor{input},
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0]

	grad := outputGrad
	if !op.keepDim {
		keepShape := in.Shape().Clone()
		keepShape[op.dim] = 1
		grad = backend.Reshape(grad, keepShape)
	}

	return []*tensor.RawTensor{broadcastTo(grad, in.Shape(), in.DType(), backend)}
}

// Inputs returns the input tensor.
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }
