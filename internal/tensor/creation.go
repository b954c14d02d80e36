package tensor

import "math/rand"

// newFilled allocates a tensor and fills it with a constant. Allocation is
// already zeroed, so the fill loop is skipped for zero values.
func newFilled[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}

	t := New[T, B](raw, b)
	if value != 0 {
		for i, data := 0, t.Data(); i < len(data); i++ {
			data[i] = value
		}
	}
	return t
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return newFilled[T, B](shape, 0, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return newFilled[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return newFilled[T, B](shape, value, b)
}

// Randn creates a tensor filled with random values from the standard normal
// distribution N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for model initialization (not security-critical)
		data[i] = T(rand.NormFloat64())
	}
	return t
}

// Rand creates a tensor filled with random values from the uniform
// distribution U(0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for model initialization (not security-critical)
		data[i] = T(rand.Float64())
	}
	return t
}

// Eye creates a 2D identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return t
}
