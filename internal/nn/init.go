package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/vbll/internal/tensor"
)

// Xavier creates a tensor initialized with the Xavier/Glorot uniform
// distribution U(-limit, limit) where limit = sqrt(6 / (fanIn + fanOut)).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, b B) *tensor.Tensor[float64, B] {
	t := tensor.Zeros[float64](shape, b)
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		data[i] = (rand.Float64()*2 - 1) * limit
	}
	return t
}

// Zeros creates a zero-initialized tensor (used for biases).
func Zeros[B tensor.Backend](shape tensor.Shape, b B) *tensor.Tensor[float64, B] {
	return tensor.Zeros[float64](shape, b)
}

// Randn creates a tensor with entries drawn from N(0, stddev²).
func Randn[B tensor.Backend](shape tensor.Shape, stddev float64, b B) *tensor.Tensor[float64, B] {
	t := tensor.Zeros[float64](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		data[i] = rand.NormFloat64() * stddev
	}
	return t
}
