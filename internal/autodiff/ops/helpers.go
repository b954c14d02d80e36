package ops

import "github.com/born-ml/vbll/internal/tensor"

// reduceBroadcast reduces a gradient back to the shape of an input that was
// broadcast during the forward pass.
//
// Broadcasting expands size-1 (or missing leading) dimensions; the matching
// gradient contribution is the sum over those expanded dimensions.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	// Sum away extra leading dimensions.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Sum over dimensions the input held at size 1.
	for i, dim := range targetShape {
		if dim == 1 && grad.Shape()[i] != 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	return grad
}

// zerosLike allocates a zero-filled tensor with the shape/dtype/device of ref.
func zerosLike(ref *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	out, err := tensor.NewRaw(ref.Shape(), ref.DType(), backend.Device())
	if err != nil {
		panic(err)
	}
	return out
}

// broadcastTo expands grad to the given shape by adding it to a zero tensor,
// reusing the backend's broadcasting rules.
func broadcastTo(grad *tensor.RawTensor, shape tensor.Shape, dtype tensor.DataType, backend tensor.Backend) *tensor.RawTensor {
	zeros, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		panic(err)
	}
	return backend.Add(zeros, grad)
}
