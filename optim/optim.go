// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for gradient-based optimizers:
// AdamW, SGD, parameter groups with per-group weight decay, and global
// gradient-norm clipping.
package optim

import (
	"github.com/born-ml/vbll/internal/optim"
	"github.com/born-ml/vbll/internal/tensor"
)

// Kwarg keys recognized by the optimizer constructors.
const (
	KwargBeta1    = optim.KwargBeta1
	KwargBeta2    = optim.KwargBeta2
	KwargEps      = optim.KwargEps
	KwargMomentum = optim.KwargMomentum
)

// ParamGroup is a set of parameters sharing optimizer settings.
type ParamGroup[B tensor.Backend] = optim.ParamGroup[B]

// Optimizer updates parameters from gradients computed by a backward pass.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// Constructor builds an optimizer from parameter groups, a learning rate,
// and keyword arguments.
type Constructor[B tensor.Backend] = optim.Constructor[B]

// AdamW is Adam with decoupled per-group weight decay.
type AdamW[B tensor.Backend] = optim.AdamW[B]

// NewAdamW creates an AdamW optimizer over the given parameter groups.
func NewAdamW[B tensor.Backend](groups []ParamGroup[B], lr float64, kwargs map[string]float64, backend B) Optimizer[B] {
	return optim.NewAdamW(groups, lr, kwargs, backend)
}

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// NewSGD creates an SGD optimizer over the given parameter groups.
func NewSGD[B tensor.Backend](groups []ParamGroup[B], lr float64, kwargs map[string]float64, backend B) Optimizer[B] {
	return optim.NewSGD(groups, lr, kwargs, backend)
}

// ClipGradNorm rescales gradients so their global L2 norm does not exceed
// maxNorm; returns the pre-clip norm.
func ClipGradNorm[B tensor.Backend](groups []ParamGroup[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float64) float64 {
	return optim.ClipGradNorm(groups, grads, maxNorm)
}
