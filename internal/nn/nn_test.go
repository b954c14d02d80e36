package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vbll/internal/autodiff"
	"github.com/born-ml/vbll/internal/backend/cpu"
	"github.com/born-ml/vbll/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() testBackend {
	return autodiff.New(cpu.New())
}

func TestLinearForward(t *testing.T) {
	backend := newBackend()
	layer := NewLinear(3, 2, backend)

	// Fix weights and bias for a deterministic check.
	copy(layer.Weight().Tensor().Data(), []float64{1, 0, -1, 2, 1, 0})
	copy(layer.Bias().Tensor().Data(), []float64{0.5, -0.5})

	input, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	out := layer.Forward(input)

	require.Equal(t, tensor.Shape{1, 2}, out.Shape())
	// Row 1: 1*1 + 2*0 + 3*(-1) + 0.5 = -1.5; row 2: 1*2 + 2*1 + 3*0 - 0.5 = 3.5.
	assert.InDeltaSlice(t, []float64{-1.5, 3.5}, out.Data(), 1e-12)
}

func TestLinearShapePanics(t *testing.T) {
	backend := newBackend()
	layer := NewLinear(3, 2, backend)

	bad := tensor.Zeros[float64](tensor.Shape{1, 4}, backend)
	assert.Panics(t, func() { layer.Forward(bad) })

	bad3d := tensor.Zeros[float64](tensor.Shape{1, 1, 3}, backend)
	assert.Panics(t, func() { layer.Forward(bad3d) })
}

func TestLinearStateDictRoundTrip(t *testing.T) {
	backend := newBackend()
	src := NewLinear(4, 3, backend)
	dst := NewLinear(4, 3, backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())
	assert.Equal(t, src.Bias().Tensor().Data(), dst.Bias().Tensor().Data())
}

func TestLinearLoadStateDictErrors(t *testing.T) {
	backend := newBackend()
	layer := NewLinear(4, 3, backend)

	err := layer.LoadStateDict(map[string]*tensor.RawTensor{})
	assert.ErrorContains(t, err, "missing weight")

	wrongShape := tensor.Zeros[float64](tensor.Shape{2, 2}, backend)
	err = layer.LoadStateDict(map[string]*tensor.RawTensor{"weight": wrongShape.Raw()})
	assert.ErrorContains(t, err, "shape mismatch")
}

func TestSequentialForwardAndParams(t *testing.T) {
	backend := newBackend()
	model := NewSequential[testBackend](
		NewLinear(2, 4, backend),
		NewELU[testBackend](1.0),
		NewLinear(4, 1, backend),
	)

	assert.Equal(t, 3, model.Len())
	assert.Len(t, model.Parameters(), 4) // two linears, weight+bias each

	input := tensor.Zeros[float64](tensor.Shape{5, 2}, backend)
	out := model.Forward(input)
	assert.Equal(t, tensor.Shape{5, 1}, out.Shape())
}

func TestSequentialStateDictPrefixes(t *testing.T) {
	backend := newBackend()
	model := NewSequential[testBackend](
		NewLinear(2, 3, backend),
		NewReLU[testBackend](),
		NewLinear(3, 1, backend),
	)

	stateDict := model.StateDict()
	assert.Contains(t, stateDict, "0.weight")
	assert.Contains(t, stateDict, "0.bias")
	assert.Contains(t, stateDict, "2.weight")
	assert.Contains(t, stateDict, "2.bias")
	assert.Len(t, stateDict, 4)

	other := NewSequential[testBackend](
		NewLinear(2, 3, backend),
		NewReLU[testBackend](),
		NewLinear(3, 1, backend),
	)
	require.NoError(t, other.LoadStateDict(stateDict))
	assert.Equal(t, stateDict["2.weight"].AsFloat64(), other.StateDict()["2.weight"].AsFloat64())
}

func TestActivations(t *testing.T) {
	backend := newBackend()
	input, err := tensor.FromSlice([]float64{-1, 0, 2}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	relu := NewReLU[testBackend]().Forward(input)
	assert.InDeltaSlice(t, []float64{0, 0, 2}, relu.Data(), 1e-12)

	elu := NewELU[testBackend](1.0).Forward(input)
	assert.InDelta(t, -0.6321205588, elu.Data()[0], 1e-9)
	assert.InDelta(t, 0, elu.Data()[1], 1e-12)
	assert.InDelta(t, 2, elu.Data()[2], 1e-12)

	tanh := NewTanh[testBackend]().Forward(input)
	assert.InDelta(t, -0.7615941559, tanh.Data()[0], 1e-9)
}

func TestELUDefaultAlpha(t *testing.T) {
	elu := NewELU[testBackend](0)
	assert.Equal(t, 1.0, elu.Alpha())
}

func TestXavierRange(t *testing.T) {
	backend := newBackend()
	w := Xavier(100, 100, tensor.Shape{100, 100}, backend)

	limit := 0.17320508 // sqrt(6/200)
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
	}
}

func TestParameterGradLifecycle(t *testing.T) {
	backend := newBackend()
	p := NewParameter("weight", tensor.Ones[float64](tensor.Shape{2}, backend))

	assert.Nil(t, p.Grad())
	p.SetGrad(tensor.Zeros[float64](tensor.Shape{2}, backend))
	assert.NotNil(t, p.Grad())
	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}
