package vbll

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// WeightPosterior is the variational posterior over the head weights,
// viewed as a distribution object: a matrix normal with mean M and shared
// row covariance S = LLᵀ.
type WeightPosterior[B tensor.Backend] struct {
	head *Regression[B]
}

// Mean returns the posterior mean weights M with shape [K, H].
// The returned tensor is a copy; mutating it does not affect the head.
func (w *WeightPosterior[B]) Mean() *tensor.Tensor[float64, B] {
	return w.head.wMean.Tensor().Clone()
}

// Rsample draws weights by the reparameterization W = M + E·Lᵀ with
// E ~ N(0, I).
//
// With no arguments it returns a single draw of shape [K, H]. With one
// argument s it returns s stacked draws of shape [s, K, H]. Draws are for
// posterior-function evaluation and are not recorded for differentiation.
func (w *WeightPosterior[B]) Rsample(sampleShape ...int) *tensor.Tensor[float64, B] {
	switch len(sampleShape) {
	case 0:
		return w.drawOne()
	case 1:
		s := sampleShape[0]
		if s <= 0 {
			panic(fmt.Sprintf("vbll: Rsample sample count must be positive, got %d", s))
		}
		k, h := w.head.outFeatures, w.head.inFeatures
		draws := make([]*tensor.Tensor[float64, B], s)
		for i := range draws {
			draws[i] = w.drawOne().Reshape(1, k, h)
		}
		return tensor.Cat(draws, 0)
	default:
		panic("vbll: Rsample supports at most one sample dimension")
	}
}

func (w *WeightPosterior[B]) drawOne() *tensor.Tensor[float64, B] {
	r := w.head
	eps := tensor.Randn[float64](tensor.Shape{r.outFeatures, r.inFeatures}, r.backend)
	return r.wMean.Tensor().Add(eps.MatMul(r.scaleFactor().T()))
}
