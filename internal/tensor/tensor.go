package tensor

import "fmt"

// Tensor pairs a RawTensor with the backend that computes on it, carrying
// the element type in the type system so mixed-dtype arithmetic cannot be
// expressed.
//
// All operation methods delegate to the backend and wrap the result in a
// fresh Tensor; see ops.go.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps an existing RawTensor. The caller guarantees the raw dtype
// matches T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice builds a tensor by copying data into freshly allocated storage
// of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if want := shape.NumElements(); want != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, slice has %d", shape, want, len(data))
	}

	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying RawTensor for backend-level code.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Data returns the elements as a typed slice aliasing the tensor's storage;
// writes through it are visible to the tensor.
func (t *Tensor[T, B]) Data() []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	default:
		panic("unsupported element type")
	}
}

// Item extracts the value of a single-element tensor, panicking otherwise.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item needs a scalar tensor, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At reads the element at the given multi-dimensional indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes the element at the given multi-dimensional indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("got %d indices for a rank-%d tensor", len(indices), len(shape)))
	}

	strides := t.raw.Strides()
	offset := 0
	for axis, idx := range indices {
		if idx < 0 || idx >= shape[axis] {
			panic(fmt.Sprintf("index %d out of range for axis %d (size %d)", idx, axis, shape[axis]))
		}
		offset += idx * strides[axis]
	}
	return offset
}

// Clone deep-copies the tensor; the copy shares the backend but not the
// storage.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// String describes the tensor's dtype, shape and device.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
