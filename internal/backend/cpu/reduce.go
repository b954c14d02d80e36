package cpu

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// Sum reduces the tensor to a scalar (0-D tensor) by summing all elements.
func (c *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	total := 0.0
	for _, v := range elems(x) {
		total += v
	}

	out := newLike(x, tensor.Shape{})
	store(out, []float64{total})
	return out
}

// SumDim sums along the given dimension. With keepDim the reduced dimension
// is kept with size 1, otherwise it is dropped.
func (c *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("SumDim: dimension %d out of range for shape %v", dim, shape))
	}

	// Collapse the shape into (outer, reduced, inner).
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	reduced := shape[dim]

	src := elems(x)
	dst := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for r := 0; r < reduced; r++ {
			base := (o*reduced + r) * inner
			for in := 0; in < inner; in++ {
				dst[o*inner+in] += src[base+in]
			}
		}
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	out := newLike(x, outShape)
	store(out, dst)
	return out
}
