// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for neural network modules: the
// Module interface, trainable parameters, the Linear layer, activation
// functions, and the Sequential container used to build surrogate
// backbones.
package nn

import (
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a trainable tensor tracked by an optimizer.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a trainable parameter from an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float64, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer: y = x @ Wᵀ + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Sequential chains modules into a pipeline.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// ReLU is the rectified linear unit activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// ELU is the exponential linear unit activation.
type ELU[B tensor.Backend] = nn.ELU[B]

// NewELU creates an ELU activation module. Alpha ≤ 0 defaults to 1.0.
func NewELU[B tensor.Backend](alpha float64) *ELU[B] {
	return nn.NewELU[B](alpha)
}

// Tanh is the hyperbolic tangent activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Xavier creates a tensor initialized with the Xavier/Glorot uniform
// distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, b B) *tensor.Tensor[float64, B] {
	return nn.Xavier(fanIn, fanOut, shape, b)
}
