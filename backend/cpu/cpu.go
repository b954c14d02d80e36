// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU compute backend.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
package cpu

import (
	"github.com/born-ml/vbll/internal/backend/cpu"
)

// Backend is the CPU implementation of the tensor Backend interface.
type Backend = cpu.CPUBackend

// New creates a new CPU backend.
func New() *Backend {
	return cpu.New()
}
