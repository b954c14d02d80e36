// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations.
//
// The package defines the core types for type-safe tensor math:
//   - Tensor[T, B]: high-level generic tensor
//   - RawTensor: low-level tensor for backend implementations
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float64](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"github.com/born-ml/vbll/internal/tensor"
)

// DType is the constraint for tensor element types (float32, float64).
type DType = tensor.DType

// DataType identifies the underlying element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device identifies where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is the untyped tensor representation used by backends.
type RawTensor = tensor.RawTensor

// Backend is the compute interface implemented by device backends.
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor over element type T and backend B.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw allocates a RawTensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a Go slice; the data is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor with standard-normal entries.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand creates a tensor with uniform [0, 1) entries.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// Eye creates a 2D identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// Cat concatenates tensors along a dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// BroadcastShapes applies NumPy-style broadcasting rules to two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
