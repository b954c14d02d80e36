package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 6, Shape{2, 3}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
}

func TestShapeEqual(t *testing.T) {
	assert.True(t, Shape{2, 3}.Equal(Shape{2, 3}))
	assert.False(t, Shape{2, 3}.Equal(Shape{3, 2}))
	assert.False(t, Shape{2, 3}.Equal(Shape{2, 3, 1}))
}

func TestComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{5}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		needs   bool
		wantErr bool
	}{
		{"same", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"row", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"col", Shape{1, 5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"rank", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"scalar", Shape{}, Shape{4, 2}, Shape{4, 2}, true, false},
		{"mismatch", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needs, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.needs, needs)
		})
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2}, Float64, CPU)
	require.NoError(t, err)
	data := raw.AsFloat64()
	copy(data, []float64{1, 2, 3, 4})

	clone := raw.Clone()
	clone.AsFloat64()[0] = 99

	assert.Equal(t, 1.0, raw.AsFloat64()[0])
	assert.Equal(t, 99.0, clone.AsFloat64()[0])
}

func TestDataTypeSize(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
}
