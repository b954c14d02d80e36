// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The autodiff backend wraps any compute backend and records operations on
// a gradient tape during the forward pass; Backward walks the tape in
// reverse to produce gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, backend)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend)
package autodiff

import (
	"github.com/born-ml/vbll/internal/autodiff"
	"github.com/born-ml/vbll/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates an autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is implemented by backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients for t, seeding the output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
