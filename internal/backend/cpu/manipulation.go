package cpu

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
// The element count must match; data is copied (tensors are contiguous).
func (c *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("Reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}

	out := newLike(t, newShape)
	copy(out.Data(), t.Data())
	return out
}

// Transpose permutes the tensor's dimensions.
// If axes is empty, all dimensions are reversed.
func (c *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("Transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	src := elems(t)
	dst := make([]float64, len(src))

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	coords := make([]int, ndim)

	for flat := range src {
		rem := flat
		for i, stride := range inStrides {
			coords[i] = rem / stride
			rem -= coords[i] * stride
		}
		outFlat := 0
		for i, ax := range axes {
			outFlat += coords[ax] * outStrides[i]
		}
		dst[outFlat] = src[flat]
	}

	out := newLike(t, outShape)
	store(out, dst)
	return out
}

// Cat concatenates tensors along a dimension.
func (c *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("Cat: empty tensor list")
	}

	first := tensors[0].Shape()
	if dim < 0 || dim >= len(first) {
		panic(fmt.Sprintf("Cat: dimension %d out of range for shape %v", dim, first))
	}

	outShape := first.Clone()
	for _, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("Cat: rank mismatch: %v vs %v", first, s))
		}
		for i := range s {
			if i != dim && s[i] != first[i] {
				panic(fmt.Sprintf("Cat: shape mismatch on dimension %d: %v vs %v", i, first, s))
			}
		}
		outShape[dim] += s[dim]
	}

	// Collapse into (outer, dim, inner) and copy slice by slice.
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= first[i]
	}
	for i := dim + 1; i < len(first); i++ {
		inner *= first[i]
	}

	dst := make([]float64, outShape.NumElements())
	rowLen := outShape[dim] * inner
	offset := 0
	for _, t := range tensors {
		src := elems(t)
		d := t.Shape()[dim]
		for o := 0; o < outer; o++ {
			copy(dst[o*rowLen+offset:o*rowLen+offset+d*inner], src[o*d*inner:(o+1)*d*inner])
		}
		offset += d * inner
	}

	out := newLike(tensors[0], outShape)
	store(out, dst)
	return out
}
