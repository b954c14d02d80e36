package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vbll/internal/tensor"
)

func fromSlice(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor[float64, *CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, New())
	require.NoError(t, err)
	return out
}

func TestAddBroadcast(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3}, tensor.Shape{3, 1})
	b := fromSlice(t, []float64{10, 20}, tensor.Shape{1, 2})

	c := a.Add(b)

	assert.Equal(t, tensor.Shape{3, 2}, c.Shape())
	assert.Equal(t, []float64{11, 21, 12, 22, 13, 23}, c.Data())
}

func TestAddScalarOperand(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	s := fromSlice(t, []float64{10}, tensor.Shape{})

	c := a.Add(s)

	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{11, 12, 13, 14}, c.Data())
}

func TestMulDiv(t *testing.T) {
	a := fromSlice(t, []float64{2, 4, 6, 8}, tensor.Shape{4})
	b := fromSlice(t, []float64{2, 2, 3, 4}, tensor.Shape{4})

	assert.Equal(t, []float64{4, 8, 18, 32}, a.Mul(b).Data())
	assert.Equal(t, []float64{1, 2, 2, 2}, a.Div(b).Data())
}

func TestMatMul(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float64{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	c := a.MatMul(b)

	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())
}

func TestBatchMatMul(t *testing.T) {
	a := fromSlice(t, []float64{
		1, 0, 0, 1, // batch 0: identity
		2, 0, 0, 2, // batch 1: 2*identity
	}, tensor.Shape{2, 2, 2})
	b := fromSlice(t, []float64{
		1, 2, 3, 4,
		1, 2, 3, 4,
	}, tensor.Shape{2, 2, 2})

	c := a.BatchMatMul(b)

	assert.Equal(t, tensor.Shape{2, 2, 2}, c.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 2, 4, 6, 8}, c.Data())
}

func TestTranspose2D(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	at := a.T()

	assert.Equal(t, tensor.Shape{3, 2}, at.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Data())
}

func TestTransposeAxes(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 2})

	at := a.Transpose(0, 2, 1)

	assert.Equal(t, tensor.Shape{2, 2, 2}, at.Shape())
	assert.Equal(t, []float64{1, 3, 2, 4, 5, 7, 6, 8}, at.Data())
}

func TestSum(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})

	s := a.Sum()

	assert.Equal(t, tensor.Shape{}, s.Shape())
	assert.Equal(t, 10.0, s.Item())
}

func TestSumDim(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	rows := a.SumDim(1, true)
	assert.Equal(t, tensor.Shape{2, 1}, rows.Shape())
	assert.Equal(t, []float64{6, 15}, rows.Data())

	cols := a.SumDim(0, false)
	assert.Equal(t, tensor.Shape{3}, cols.Shape())
	assert.Equal(t, []float64{5, 7, 9}, cols.Data())
}

func TestReshape(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	r := a.Reshape(3, 2)

	assert.Equal(t, tensor.Shape{3, 2}, r.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, r.Data())
}

func TestCat(t *testing.T) {
	backend := New()
	a := tensor.Ones[float64](tensor.Shape{1, 2, 2}, backend)
	b := tensor.Zeros[float64](tensor.Shape{1, 2, 2}, backend)

	c := tensor.Cat([]*tensor.Tensor[float64, *CPUBackend]{a, b}, 0)

	assert.Equal(t, tensor.Shape{2, 2, 2}, c.Shape())
	assert.Equal(t, []float64{1, 1, 1, 1, 0, 0, 0, 0}, c.Data())
}

func TestExpLogSqrt(t *testing.T) {
	a := fromSlice(t, []float64{1, 4, 9}, tensor.Shape{3})

	assert.InDeltaSlice(t, []float64{1, 2, 3}, a.Sqrt().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 4, 9}, a.Log().Exp().Data(), 1e-12)
}

func TestMean(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{4})
	assert.InDelta(t, 2.5, a.Mean().Item(), 1e-12)
}
