package cpu

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// elems returns the tensor's elements widened to float64; store narrows
// results back. Keeping the arithmetic in float64 matches the model's
// working precision; float32 tensors round-trip through a copy.
func elems(t *tensor.RawTensor) []float64 {
	switch t.DType() {
	case tensor.Float64:
		return t.AsFloat64()
	case tensor.Float32:
		src := t.AsFloat32()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", t.DType()))
	}
}

// newLike allocates an uninitialized tensor with the given shape and the
// dtype/device of the reference tensor.
func newLike(ref *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, ref.DType(), ref.Device())
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	return out
}

// store writes float64 values into a tensor, narrowing if needed.
func store(t *tensor.RawTensor, values []float64) {
	switch t.DType() {
	case tensor.Float64:
		copy(t.AsFloat64(), values)
	case tensor.Float32:
		dst := t.AsFloat32()
		for i, v := range values {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", t.DType()))
	}
}

// unaryOp applies f element-wise.
func unaryOp(x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	src := elems(x)
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = f(v)
	}
	out := newLike(x, x.Shape())
	store(out, dst)
	return out
}

// binaryOp applies f element-wise with NumPy-style broadcasting.
func binaryOp(a, b *tensor.RawTensor, f func(x, y float64) float64) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}

	aData, bData := elems(a), elems(b)
	dst := make([]float64, outShape.NumElements())

	if !needsBroadcast {
		for i := range dst {
			dst[i] = f(aData[i], bData[i])
		}
	} else {
		aIdx := newBroadcastIndexer(a.Shape(), outShape)
		bIdx := newBroadcastIndexer(b.Shape(), outShape)
		for i := range dst {
			dst[i] = f(aData[aIdx.offset(i)], bData[bIdx.offset(i)])
		}
	}

	out := newLike(a, outShape)
	store(out, dst)
	return out
}

// broadcastIndexer maps flat indices in the broadcast output shape to flat
// indices in a (possibly smaller) input shape. Dimensions of size 1 in the
// input contribute stride 0, so the same input element is reused across the
// broadcast dimension.
type broadcastIndexer struct {
	outStrides []int
	inStrides  []int
}

func newBroadcastIndexer(in, out tensor.Shape) *broadcastIndexer {
	outStrides := out.ComputeStrides()
	realStrides := in.ComputeStrides()

	inStrides := make([]int, len(out))
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			inStrides[i] = 0
		} else {
			inStrides[i] = realStrides[j]
		}
	}

	return &broadcastIndexer{outStrides: outStrides, inStrides: inStrides}
}

func (bi *broadcastIndexer) offset(flat int) int {
	off := 0
	for i, stride := range bi.outStrides {
		coord := flat / stride
		flat -= coord * stride
		off += coord * bi.inStrides[i]
	}
	return off
}
