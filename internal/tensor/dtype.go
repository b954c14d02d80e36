package tensor

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// DType is the compile-time constraint for tensor element types.
//
// The engine is float-only: surrogate modeling for Bayesian optimization
// runs in float64 end to end, with float32 kept for cheap feature
// extractors.
type DType interface {
	constraints.Float
}

// DataType is the runtime type tag of a tensor.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the size of one element in bytes.
func (d DataType) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type: %d", d))
	}
}

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// inferDataType maps a Go value to its DataType tag.
func inferDataType[T DType](v T) DataType {
	switch any(v).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic(fmt.Sprintf("unsupported element type: %T", v))
	}
}
