package models

import (
	"fmt"

	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// SampledFunction is a deterministic function realized from one (or several)
// weight draws of a model's posterior: frozen backbone followed by a fixed
// linear map per draw.
//
// It is the callable handed to sampling-based acquisition strategies. It
// holds a reference to the shared backbone and owns its weight draws; it
// never mutates the backbone.
//
// Internally draws are always a list, one [K, H] matrix per sample; the
// single-draw case just strips the sample axis at the output boundary.
type SampledFunction[B tensor.Backend] struct {
	backbone nn.Module[B]
	weights  []*tensor.Tensor[float64, B] // one [out, hidden] map per draw
	batched  bool
}

// NewSampledFunction wraps a backbone and a single weight draw.
func NewSampledFunction[B tensor.Backend](backbone nn.Module[B], weights *tensor.Tensor[float64, B]) *SampledFunction[B] {
	return &SampledFunction[B]{
		backbone: backbone,
		weights:  []*tensor.Tensor[float64, B]{weights},
		batched:  false,
	}
}

// NewBatchedSampledFunction wraps a backbone and S independent weight draws.
func NewBatchedSampledFunction[B tensor.Backend](backbone nn.Module[B], weights []*tensor.Tensor[float64, B]) *SampledFunction[B] {
	if len(weights) == 0 {
		panic("models: batched sampled function needs at least one weight draw")
	}
	return &SampledFunction[B]{backbone: backbone, weights: weights, batched: true}
}

// Batched reports whether the function carries multiple draws.
func (s *SampledFunction[B]) Batched() bool { return s.batched }

// NumSamples returns the number of weight draws.
func (s *SampledFunction[B]) NumSamples() int { return len(s.weights) }

// Call evaluates the sampled function on a batch of inputs x of shape
// [M, D].
//
// A single-draw function returns [M, out]. A function with S draws returns
// [S, M, out]: the backbone features are shared, each draw applies its own
// linear map.
func (s *SampledFunction[B]) Call(x *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	if len(x.Shape()) != 2 {
		panic(fmt.Sprintf("models: SampledFunction.Call expects [batch, features] input, got %v", x.Shape()))
	}

	features := s.backbone.Forward(x) // [M, H]
	m := features.Shape()[0]

	outs := make([]*tensor.Tensor[float64, B], len(s.weights))
	for i, w := range s.weights {
		outs[i] = features.MatMul(w.T()) // [M, K]
	}

	if !s.batched {
		return outs[0]
	}

	k := s.weights[0].Shape()[0]
	for i, out := range outs {
		outs[i] = out.Reshape(1, m, k)
	}
	return tensor.Cat(outs, 0) // [S, M, K]
}
