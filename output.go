package vbll

import (
	"fmt"
	"math"

	"github.com/born-ml/vbll/internal/tensor"
)

// Output is the result of evaluating a Regression head on a feature batch.
// It carries the features and computes predictive moments and the training
// loss on demand, so only the quantities a caller needs hit the tape.
type Output[B tensor.Backend] struct {
	head     *Regression[B]
	features *tensor.Tensor[float64, B] // φ: [batch, H]
}

// Predictive returns the marginal predictive moments at the evaluated
// features:
//
//	mean[n, k]     = φₙ · Mₖ
//	variance[n, k] = φₙᵀ S φₙ + exp(ρₖ)
//
// Both have shape [batch, K]. Variances are strictly positive.
func (o *Output[B]) Predictive() (mean, variance *tensor.Tensor[float64, B]) {
	r := o.head
	mean = o.features.MatMul(r.wMean.Tensor().T()) // [batch, K]

	qf := o.quadraticForm() // [batch, 1]
	noiseVar := r.noiseLogdiag.Tensor().Exp()
	variance = qf.Add(noiseVar) // broadcast [batch,1] + [1,K] → [batch,K]
	return mean, variance
}

// TrainLoss computes the differentiable negative ELBO for targets of shape
// [batch, K]:
//
//	-mean_n( log N(yₙ | φₙMᵀ, Σ) - ½·φₙᵀSφₙ·tr Σ⁻¹ ) - regWeight·(wishart - KL)
//
// where KL is the divergence between q(W) and the isotropic prior
// N(0, priorScale·I), and the wishart term is the inverse-Wishart-style
// log-prior on the noise variances.
func (o *Output[B]) TrainLoss(targets *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	r := o.head
	n := o.features.Shape()[0]
	if !targets.Shape().Equal(tensor.Shape{n, r.outFeatures}) {
		panic(fmt.Sprintf("vbll: TrainLoss expects [%d, %d] targets, got %v", n, r.outFeatures, targets.Shape()))
	}

	mean := o.features.MatMul(r.wMean.Tensor().T()) // [batch, K]
	rho := r.noiseLogdiag.Tensor()                  // [1, K]
	invNoise := rho.MulScalar(-1).Exp()             // Σ⁻¹ diagonal: [1, K]

	// Gaussian log-likelihood summed over outputs, per point: [batch, 1].
	resid := targets.Sub(mean)
	logLik := resid.Mul(resid).Mul(invNoise).
		Add(rho).
		AddScalar(math.Log(2 * math.Pi)).
		MulScalar(-0.5).
		SumDim(1, true)

	// Expected-likelihood correction: ½·φᵀSφ·tr Σ⁻¹ per point.
	trInvNoise := invNoise.Sum() // scalar
	correction := o.quadraticForm().Mul(trInvNoise).MulScalar(-0.5)

	expectedLogLik := logLik.Add(correction).Mean()

	reg := r.wishartTerm(rho, invNoise).Sub(r.klDivergence()).MulScalar(r.regWeight)

	return expectedLogLik.Add(reg).MulScalar(-1)
}

// quadraticForm computes φₙᵀ S φₙ per point as ‖φₙᵀL‖², shape [batch, 1].
func (o *Output[B]) quadraticForm() *tensor.Tensor[float64, B] {
	u := o.features.MatMul(o.head.scaleFactor()) // [batch, H]
	return u.Mul(u).SumDim(1, true)
}

// klDivergence computes KL(q(W) ‖ N(0, priorScale·I)) as a scalar tensor:
//
//	½·[ K·( tr(S)/s + H·ln s - H - logdet S ) + ‖M‖²_F / s ]
//
// with s = priorScale, tr(S) = Σᵢⱼ Lᵢⱼ², logdet S = 2·Σⱼ dⱼ.
func (r *Regression[B]) klDivergence() *tensor.Tensor[float64, B] {
	h, k := float64(r.inFeatures), float64(r.outFeatures)
	s := r.priorScale

	l := r.scaleFactor()
	traceS := l.Mul(l).Sum()
	logdetS := r.wLogdiag.Tensor().Sum().MulScalar(2)
	meanSq := r.wMean.Tensor().Mul(r.wMean.Tensor()).Sum()

	return traceS.MulScalar(k / (2 * s)).
		Sub(logdetS.MulScalar(k / 2)).
		Add(meanSq.MulScalar(1 / (2 * s))).
		AddScalar(0.5 * k * (h*math.Log(s) - h))
}

// wishartTerm computes the inverse-Wishart-style log-prior on the noise
// variances as a scalar tensor:
//
//	(H+1)/2·Σₖ(-ρₖ) - ½·wishartScale·Σₖ exp(-ρₖ)
func (r *Regression[B]) wishartTerm(rho, invNoise *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	dof := float64(r.inFeatures + 1)
	return rho.Sum().MulScalar(-dof / 2).
		Add(invNoise.Sum().MulScalar(-0.5 * r.wishartScale))
}
