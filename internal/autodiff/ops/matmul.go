package ops

import "github.com/born-ml/vbll/internal/tensor"

// MatMulOp represents matrix multiplication: output = a @ b.
//
// Backward:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
type MatMulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := backend.MatMul(outputGrad, backend.Transpose(b, 1, 0))
	gradB := backend.MatMul(backend.Transpose(a, 1, 0), outputGrad)

	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *MatMulOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor a @ b.
func (op *MatMulOp) Output() *tensor.RawTensor { return op.output }

// BatchMatMulOp represents batched matrix multiplication over 3D tensors.
//
// Backward mirrors MatMulOp with the batch dimension carried along:
//   - grad_a = outputGrad @ b^T (per batch)
//   - grad_b = a^T @ outputGrad (per batch)
type BatchMatMulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for batched matrix multiplication.
func (op *BatchMatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := backend.BatchMatMul(outputGrad, backend.Transpose(b, 0, 2, 1))
	gradB := backend.BatchMatMul(backend.Transpose(a, 0, 2, 1), outputGrad)

	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *BatchMatMulOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *BatchMatMulOp) Output() *tensor.RawTensor { return op.output }
