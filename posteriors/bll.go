package posteriors

import "fmt"

// BLLPosterior is the joint predictive distribution of a Bayesian last-layer
// model at a set of query points.
//
// For q query points and K outputs the joint is a Gaussian over the q·K
// flattened predictions, ordered point-major (entry n·K+k is output k at
// point n). A batched posterior holds one independent joint per batch
// element; there is no cross-batch correlation.
type BLLPosterior struct {
	mvns       []*MultivariateNormal
	numPoints  int
	numOutputs int
	batched    bool
}

// NewBLLPosterior wraps per-batch joint Gaussians with model metadata.
// Unbatched posteriors pass exactly one distribution and batched=false.
func NewBLLPosterior(mvns []*MultivariateNormal, numPoints, numOutputs int, batched bool) (*BLLPosterior, error) {
	if len(mvns) == 0 {
		return nil, fmt.Errorf("posteriors: no distributions")
	}
	if !batched && len(mvns) != 1 {
		return nil, fmt.Errorf("posteriors: unbatched posterior needs exactly one distribution, got %d", len(mvns))
	}
	want := numPoints * numOutputs
	for i, m := range mvns {
		if m.Dim() != want {
			return nil, fmt.Errorf("posteriors: distribution %d has dim %d, expected %d points × %d outputs = %d",
				i, m.Dim(), numPoints, numOutputs, want)
		}
	}
	return &BLLPosterior{
		mvns:       mvns,
		numPoints:  numPoints,
		numOutputs: numOutputs,
		batched:    batched,
	}, nil
}

// Batched reports whether the posterior came from a batched query.
func (p *BLLPosterior) Batched() bool { return p.batched }

// BatchSize returns the number of independent batch elements.
func (p *BLLPosterior) BatchSize() int { return len(p.mvns) }

// NumPoints returns the number of query points per batch element.
func (p *BLLPosterior) NumPoints() int { return p.numPoints }

// NumOutputs returns the number of model outputs.
func (p *BLLPosterior) NumOutputs() int { return p.numOutputs }

// At returns the joint Gaussian for batch element i.
func (p *BLLPosterior) At(i int) *MultivariateNormal {
	return p.mvns[i]
}

// Joint returns the single joint Gaussian of an unbatched posterior.
func (p *BLLPosterior) Joint() *MultivariateNormal {
	if p.batched {
		panic("posteriors: Joint called on a batched posterior; use At")
	}
	return p.mvns[0]
}

// Mean returns the flattened means, batch elements concatenated in order.
// For an unbatched posterior this is the q·K joint mean.
func (p *BLLPosterior) Mean() []float64 {
	return p.concat(func(m *MultivariateNormal) []float64 { return m.Mean() })
}

// Variance returns the flattened marginal variances, batch elements
// concatenated in order.
func (p *BLLPosterior) Variance() []float64 {
	return p.concat(func(m *MultivariateNormal) []float64 { return m.Variance() })
}

// Rsample draws one joint sample per batch element, concatenated in order.
// Batch elements are drawn independently.
func (p *BLLPosterior) Rsample() ([]float64, error) {
	out := make([]float64, 0, len(p.mvns)*p.numPoints*p.numOutputs)
	for _, m := range p.mvns {
		draw, err := m.Rsample()
		if err != nil {
			return nil, err
		}
		out = append(out, draw...)
	}
	return out, nil
}

func (p *BLLPosterior) concat(f func(*MultivariateNormal) []float64) []float64 {
	out := make([]float64, 0, len(p.mvns)*p.numPoints*p.numOutputs)
	for _, m := range p.mvns {
		out = append(out, f(m)...)
	}
	return out
}
