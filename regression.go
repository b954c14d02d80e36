package vbll

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// RegressionConfig configures a Regression head.
// Zero-valued fields fall back to defaults.
type RegressionConfig struct {
	InFeatures  int // Feature dimension H produced by the backbone (required)
	OutFeatures int // Number of regression outputs K (required)

	// RegularizationWeight scales the KL and noise-prior terms of the loss.
	// Models typically set this to klScale / numTrainingPoints before fitting.
	// Default: 1.0.
	RegularizationWeight float64

	// PriorScale is the variance of the zero-mean isotropic weight prior.
	// Default: 1.0.
	PriorScale float64

	// WishartScale controls the inverse-Wishart-style prior on the noise
	// variances. Default: 0.01.
	WishartScale float64
}

func (c RegressionConfig) withDefaults() RegressionConfig {
	if c.RegularizationWeight == 0 {
		c.RegularizationWeight = 1.0
	}
	if c.PriorScale == 0 {
		c.PriorScale = 1.0
	}
	if c.WishartScale == 0 {
		c.WishartScale = 0.01
	}
	return c
}

// Regression is a variational Bayesian last layer for regression.
//
// Variational posterior over the layer weights W (K×H):
//
//	q(W) = MatrixNormal(M, I_K, S)    with S = LLᵀ shared across rows
//
// L is parameterized by an unconstrained strict lower triangle and a
// log-diagonal vector, so S stays positive definite and logdet S = 2·Σd.
// Observation noise is diagonal: Σ = diag(exp(ρ)).
type Regression[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int

	regWeight    float64
	priorScale   float64
	wishartScale float64

	wMean        *nn.Parameter[B] // M: [K, H]
	wOffdiag     *nn.Parameter[B] // strict lower triangle of L: [H, H]
	wLogdiag     *nn.Parameter[B] // log-diagonal of L: [1, H]
	noiseLogdiag *nn.Parameter[B] // ρ: [1, K]

	// Constant masks for assembling L. Never trained, never on the tape as
	// operation outputs.
	strictLower *tensor.Tensor[float64, B] // [H, H], ones below the diagonal
	eye         *tensor.Tensor[float64, B] // [H, H] identity

	backend B
}

// NewRegression creates a Regression head.
//
// The posterior mean starts near zero (N(0, 1/H) entries), the covariance
// factor starts diagonal with entries exp(d) where d ≈ -0.5·ln H, and the
// noise log-variances start around -1.
func NewRegression[B tensor.Backend](cfg RegressionConfig, backend B) (*Regression[B], error) {
	if cfg.InFeatures <= 0 {
		return nil, fmt.Errorf("vbll: InFeatures must be positive, got %d", cfg.InFeatures)
	}
	if cfg.OutFeatures <= 0 {
		return nil, fmt.Errorf("vbll: OutFeatures must be positive, got %d", cfg.OutFeatures)
	}
	cfg = cfg.withDefaults()

	h, k := cfg.InFeatures, cfg.OutFeatures

	wMean := nn.Randn(tensor.Shape{k, h}, 1.0/math.Sqrt(float64(h)), backend)
	wOffdiag := tensor.Zeros[float64](tensor.Shape{h, h}, backend)

	wLogdiag := tensor.Zeros[float64](tensor.Shape{1, h}, backend)
	logdiagData := wLogdiag.Data()
	baseLogdiag := -0.5 * math.Log(float64(h))
	for i := range logdiagData {
		//nolint:gosec // math/rand for initialization (not security-critical)
		logdiagData[i] = baseLogdiag + 0.1*rand.NormFloat64()
	}

	noiseLogdiag := tensor.Zeros[float64](tensor.Shape{1, k}, backend)
	noiseData := noiseLogdiag.Data()
	for i := range noiseData {
		//nolint:gosec // math/rand for initialization (not security-critical)
		noiseData[i] = -1.0 + 0.1*rand.NormFloat64()
	}

	strictLower := tensor.Zeros[float64](tensor.Shape{h, h}, backend)
	maskData := strictLower.Data()
	for i := 0; i < h; i++ {
		for j := 0; j < i; j++ {
			maskData[i*h+j] = 1
		}
	}

	return &Regression[B]{
		inFeatures:   h,
		outFeatures:  k,
		regWeight:    cfg.RegularizationWeight,
		priorScale:   cfg.PriorScale,
		wishartScale: cfg.WishartScale,
		wMean:        nn.NewParameter("W_mean", wMean),
		wOffdiag:     nn.NewParameter("W_offdiag", wOffdiag),
		wLogdiag:     nn.NewParameter("W_logdiag", wLogdiag),
		noiseLogdiag: nn.NewParameter("noise_logdiag", noiseLogdiag),
		strictLower:  strictLower,
		eye:          tensor.Eye[float64](h, backend),
		backend:      backend,
	}, nil
}

// InFeatures returns the feature dimension H.
func (r *Regression[B]) InFeatures() int { return r.inFeatures }

// OutFeatures returns the number of outputs K.
func (r *Regression[B]) OutFeatures() int { return r.outFeatures }

// RegularizationWeight returns the current weight on the KL and noise-prior
// loss terms.
func (r *Regression[B]) RegularizationWeight() float64 { return r.regWeight }

// SetRegularizationWeight replaces the weight on the KL and noise-prior loss
// terms. Idempotent for equal values.
func (r *Regression[B]) SetRegularizationWeight(w float64) { r.regWeight = w }

// Forward evaluates the head on backbone features of shape [batch, H].
// The returned Output exposes the predictive distribution and the
// training loss.
func (r *Regression[B]) Forward(features *tensor.Tensor[float64, B]) *Output[B] {
	shape := features.Shape()
	if len(shape) != 2 || shape[1] != r.inFeatures {
		panic(fmt.Sprintf("vbll: Regression.Forward expects [batch, %d] features, got %v", r.inFeatures, shape))
	}
	return &Output[B]{head: r, features: features}
}

// W returns the variational posterior over the layer weights.
func (r *Regression[B]) W() *WeightPosterior[B] {
	return &WeightPosterior[B]{head: r}
}

// scaleFactor assembles the lower-triangular covariance factor
// L = strictLower ⊙ W_offdiag + diag(exp(W_logdiag)).
// The assembly runs through backend ops so the loss stays differentiable
// in both the off-diagonal and log-diagonal parameters.
func (r *Regression[B]) scaleFactor() *tensor.Tensor[float64, B] {
	offdiag := r.strictLower.Mul(r.wOffdiag.Tensor())
	diag := r.eye.Mul(r.wLogdiag.Tensor().Exp())
	return offdiag.Add(diag)
}

// Parameters returns the head's trainable parameters.
func (r *Regression[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{r.wMean, r.wOffdiag, r.wLogdiag, r.noiseLogdiag}
}

// StateDict returns the head parameters keyed by name.
func (r *Regression[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"W_mean":        r.wMean.Tensor().Raw(),
		"W_offdiag":     r.wOffdiag.Tensor().Raw(),
		"W_logdiag":     r.wLogdiag.Tensor().Raw(),
		"noise_logdiag": r.noiseLogdiag.Tensor().Raw(),
	}
}

// LoadStateDict copies parameter values from the state dictionary.
func (r *Regression[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range r.Parameters() {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("vbll: missing %s in state dict", p.Name())
		}
		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("vbll: %s shape mismatch: expected %v, got %v",
				p.Name(), p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float64 {
			return fmt.Errorf("vbll: %s dtype mismatch: expected float64, got %v", p.Name(), raw.DType())
		}
		copy(p.Tensor().Data(), raw.AsFloat64())
	}
	return nil
}
