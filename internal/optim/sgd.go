package optim

import (
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// decoupled per-group weight decay.
//
// Update rule per parameter:
//
//	buf = momentum * buf + g
//	param = param - lr * (buf + wd * param)
type SGD[B tensor.Backend] struct {
	groups   []ParamGroup[B]
	lr       float64
	momentum float64
	buf      map[*nn.Parameter[B]]*tensor.Tensor[float64, B]
	backend  B
}

// NewSGD creates an SGD optimizer over the given parameter groups.
//
// Recognized kwargs: momentum (default 0). A zero learning rate defaults
// to 1e-2.
func NewSGD[B tensor.Backend](groups []ParamGroup[B], lr float64, kwargs map[string]float64, backend B) Optimizer[B] {
	if lr == 0 {
		lr = 1e-2
	}
	return &SGD[B]{
		groups:   groups,
		lr:       lr,
		momentum: kwarg(kwargs, KwargMomentum, 0),
		buf:      make(map[*nn.Parameter[B]]*tensor.Tensor[float64, B]),
		backend:  backend,
	}
}

// Step applies one SGD update across all parameter groups.
// Parameters without a gradient are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, group := range s.groups {
		for _, param := range group.Params {
			grad := getGradient(param, grads)
			if grad == nil {
				continue
			}

			gradData := grad.AsFloat64()
			paramData := param.Tensor().Data()

			if s.momentum != 0 {
				buf, ok := s.buf[param]
				if !ok {
					buf = tensor.Zeros[float64](param.Tensor().Shape(), s.backend)
					s.buf[param] = buf
				}
				bufData := buf.Data()
				for i := range paramData {
					bufData[i] = s.momentum*bufData[i] + gradData[i]
					update := bufData[i]
					if group.WeightDecay != 0 {
						update += group.WeightDecay * paramData[i]
					}
					paramData[i] -= s.lr * update
				}
			} else {
				for i := range paramData {
					update := gradData[i]
					if group.WeightDecay != 0 {
						update += group.WeightDecay * paramData[i]
					}
					paramData[i] -= s.lr * update
				}
			}
		}
	}
}

// ZeroGrad clears gradients on all parameters in all groups.
func (s *SGD[B]) ZeroGrad() {
	for _, group := range s.groups {
		for _, param := range group.Params {
			param.ZeroGrad()
		}
	}
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float64 {
	return s.lr
}
