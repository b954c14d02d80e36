package optim

import (
	"math"

	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// AdamW implements Adam with decoupled weight decay.
//
// Update rule per parameter:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * g
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * (m_hat / (sqrt(v_hat) + eps) + wd * param)
//
// Weight decay is applied per parameter group, directly on the weights
// rather than folded into the gradient. Groups with WeightDecay 0 get
// plain Adam updates.
//
// Reference: "Decoupled Weight Decay Regularization" (Loshchilov & Hutter, 2019)
type AdamW[B tensor.Backend] struct {
	groups  []ParamGroup[B]
	lr      float64
	beta1   float64
	beta2   float64
	eps     float64
	t       int
	m       map[*nn.Parameter[B]]*tensor.Tensor[float64, B]
	v       map[*nn.Parameter[B]]*tensor.Tensor[float64, B]
	backend B
}

// NewAdamW creates an AdamW optimizer over the given parameter groups.
//
// Recognized kwargs: beta1 (default 0.9), beta2 (default 0.999),
// eps (default 1e-8). A zero learning rate defaults to 1e-3.
func NewAdamW[B tensor.Backend](groups []ParamGroup[B], lr float64, kwargs map[string]float64, backend B) Optimizer[B] {
	if lr == 0 {
		lr = 1e-3
	}
	return &AdamW[B]{
		groups:  groups,
		lr:      lr,
		beta1:   kwarg(kwargs, KwargBeta1, 0.9),
		beta2:   kwarg(kwargs, KwargBeta2, 0.999),
		eps:     kwarg(kwargs, KwargEps, 1e-8),
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float64, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float64, B]),
		backend: backend,
	}
}

// Step applies one AdamW update across all parameter groups.
// Parameters without a gradient are skipped.
func (a *AdamW[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, group := range a.groups {
		for _, param := range group.Params {
			grad := getGradient(param, grads)
			if grad == nil {
				continue
			}

			m, ok := a.m[param]
			if !ok {
				m = tensor.Zeros[float64](param.Tensor().Shape(), a.backend)
				a.m[param] = m
			}
			v, ok := a.v[param]
			if !ok {
				v = tensor.Zeros[float64](param.Tensor().Shape(), a.backend)
				a.v[param] = v
			}

			gradData := grad.AsFloat64()
			mData := m.Data()
			vData := v.Data()
			paramData := param.Tensor().Data()

			for i := range paramData {
				g := gradData[i]
				mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
				vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g
				mHat := mData[i] / biasCorrection1
				vHat := vData[i] / biasCorrection2
				update := mHat / (math.Sqrt(vHat) + a.eps)
				if group.WeightDecay != 0 {
					update += group.WeightDecay * paramData[i]
				}
				paramData[i] -= a.lr * update
			}
		}
	}
}

// ZeroGrad clears gradients on all parameters in all groups.
func (a *AdamW[B]) ZeroGrad() {
	for _, group := range a.groups {
		for _, param := range group.Params {
			param.ZeroGrad()
		}
	}
}

// LR returns the current learning rate.
func (a *AdamW[B]) LR() float64 {
	return a.lr
}

// SetLR updates the learning rate (for schedules).
func (a *AdamW[B]) SetLR(lr float64) {
	a.lr = lr
}

// Timestep returns the number of Step calls so far.
func (a *AdamW[B]) Timestep() int {
	return a.t
}
