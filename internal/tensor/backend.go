package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: pure Go (internal/backend/cpu)
//   - Autodiff: decorator over any backend, records a gradient tape
//     (internal/autodiff)
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: (M, K) @ (K, N) -> (M, N)
	MatMul(a, b *RawTensor) *RawTensor
	// BatchMatMul: (B, M, K) @ (B, K, N) -> (B, M, N)
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                           // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor // concatenate along dimension

	// Metadata.
	Name() string
	Device() Device
}
