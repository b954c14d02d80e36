package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
//
// Device selection is explicit configuration: a backend is constructed for
// one device and every tensor it creates lives there. There is no ambient
// device probing anywhere in the engine.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation: a contiguous row-major
// buffer plus shape, strides and runtime type information.
//
// RawTensor carries no gradient state; autodiff identifies tensors by
// pointer, so operations always allocate fresh outputs rather than reusing
// input buffers.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int { return r.stride }

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int { return len(r.data) }

// Data exposes the backing byte buffer without copying.
func (r *RawTensor) Data() []byte { return r.data }

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone creates a deep copy of the RawTensor.
//
// Parameter snapshots during training rely on this being a full copy: the
// clone must stay frozen while the original keeps being updated in place.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// CopyFrom copies element data from another tensor of identical shape and type.
func (r *RawTensor) CopyFrom(other *RawTensor) error {
	if !r.shape.Equal(other.shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", r.shape, other.shape)
	}
	if r.dtype != other.dtype {
		return fmt.Errorf("dtype mismatch: %s vs %s", r.dtype, other.dtype)
	}
	copy(r.data, other.data)
	return nil
}
