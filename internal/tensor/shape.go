package tensor

import "fmt"

// Shape holds tensor dimensions, outermost first. A zero-length shape is a
// scalar.
type Shape []int

// NumElements returns the element count described by the shape. Scalars
// count as one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate rejects shapes with non-positive dimensions.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("dimension %d is %d, want > 0", i, d)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, d := range s {
		if d != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ComputeStrides returns row-major strides: the innermost dimension has
// stride 1, each outer stride is the product of the dimensions inside it.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// BroadcastShapes resolves two shapes under NumPy broadcasting rules.
//
// Dimensions are aligned from the right; at each position they must match
// or one of them must be 1 (missing leading dimensions count as 1). The
// second return value reports whether any stretching is needed, so backends
// can take a fast path for identical shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := len(a)
	if len(b) > rank {
		rank = len(b)
	}

	out := make(Shape, rank)
	stretched := false
	for pos := 1; pos <= rank; pos++ {
		da, db := 1, 1
		if pos <= len(a) {
			da = a[len(a)-pos]
		}
		if pos <= len(b) {
			db = b[len(b)-pos]
		}

		switch {
		case da == db:
			out[rank-pos] = da
		case da == 1:
			out[rank-pos] = db
			stretched = true
		case db == 1:
			out[rank-pos] = da
			stretched = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: %d vs %d at axis %d",
				a, b, da, db, rank-pos)
		}
	}
	return out, stretched, nil
}
