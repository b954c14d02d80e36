package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float64](Shape{3, 1}, backend)
//	b := tensor.Ones[float64](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// BatchMatMul performs batched matrix multiplication:
// (B, M, K) @ (B, K, N) → (B, M, N).
func (t *Tensor[T, B]) BatchMatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.BatchMatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but a different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose transposes the tensor by permuting its dimensions.
//
// If axes is empty, reverses all dimensions (for 2D, this is the standard
// transpose). Otherwise, axes specifies the permutation.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar float64) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar float64) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// Exp computes the element-wise exponential.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the element-wise natural logarithm.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// Sqrt computes the element-wise square root.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Sum reduces the tensor to a scalar by summing all elements.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along a dimension. With keepDim the reduced dimension is kept
// with size 1, otherwise it is dropped.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// Mean reduces the tensor to a scalar mean over all elements.
//
// Implemented as Sum followed by a scalar multiply so that both steps are
// visible to the autodiff tape.
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	return t.Sum().MulScalar(1.0 / float64(t.NumElements()))
}

// Cat concatenates tensors along a dimension.
//
// Example:
//
//	a := tensor.Ones[float64](Shape{2, 3}, backend)
//	b := tensor.Zeros[float64](Shape{2, 3}, backend)
//	c := tensor.Cat([]*tensor.Tensor[float64, B]{a, b}, 0) // Shape: [4, 3]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("Cat: empty tensor list")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.Raw()
	}
	b := tensors[0].Backend()
	return New[T, B](b.Cat(raws, dim), b)
}
