package optim

import (
	"math"

	"github.com/born-ml/vbll/internal/tensor"
)

// ClipGradNorm rescales gradients so their global L2 norm does not exceed
// maxNorm. The norm is computed over all parameters in all groups that have
// a gradient; gradients are scaled in place when the norm exceeds the limit.
//
// Returns the pre-clip global norm. A maxNorm ≤ 0 disables clipping and
// only reports the norm.
func ClipGradNorm[B tensor.Backend](groups []ParamGroup[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float64) float64 {
	var clipped []*tensor.RawTensor
	sumSq := 0.0

	for _, group := range groups {
		for _, param := range group.Params {
			grad := getGradient(param, grads)
			if grad == nil {
				continue
			}
			for _, g := range grad.AsFloat64() {
				sumSq += g * g
			}
			clipped = append(clipped, grad)
		}
	}

	totalNorm := math.Sqrt(sumSq)
	if maxNorm <= 0 || totalNorm <= maxNorm {
		return totalNorm
	}

	scale := maxNorm / (totalNorm + 1e-6)
	for _, grad := range clipped {
		data := grad.AsFloat64()
		for i := range data {
			data[i] *= scale
		}
	}
	return totalNorm
}
