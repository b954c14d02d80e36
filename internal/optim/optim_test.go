package optim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vbll/internal/backend/cpu"
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

type testBackend = *cpu.CPUBackend

func newParam(t *testing.T, backend testBackend, name string, values []float64) *nn.Parameter[testBackend] {
	t.Helper()
	tens, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, tens)
}

func gradFor(t *testing.T, backend testBackend, p *nn.Parameter[testBackend], values []float64) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	g, err := tensor.FromSlice(values, p.Tensor().Shape(), backend)
	require.NoError(t, err)
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): g.Raw()}
}

func TestAdamWFirstStep(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	opt := NewAdamW(groups, 0.1, nil, backend)
	opt.Step(gradFor(t, backend, p, []float64{0.5}))

	// After bias correction the first step moves by lr * g/(|g| + eps).
	expected := 1.0 - 0.1*0.5/(0.5+1e-8)
	assert.InDelta(t, expected, p.Tensor().Data()[0], 1e-9)
}

func TestAdamWDecoupledWeightDecay(t *testing.T) {
	backend := cpu.New()
	decayed := newParam(t, backend, "backbone", []float64{2.0})
	preserved := newParam(t, backend, "head", []float64{2.0})
	groups := []ParamGroup[testBackend]{
		{Params: []*nn.Parameter[testBackend]{decayed}, WeightDecay: 0.5},
		{Params: []*nn.Parameter[testBackend]{preserved}, WeightDecay: 0},
	}

	opt := NewAdamW(groups, 0.1, nil, backend)

	grads := gradFor(t, backend, decayed, []float64{0.5})
	gPreserved, err := tensor.FromSlice([]float64{0.5}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	grads[preserved.Tensor().Raw()] = gPreserved.Raw()
	opt.Step(grads)

	adamStep := 0.1 * 0.5 / (0.5 + 1e-8)
	assert.InDelta(t, 2.0-adamStep-0.1*0.5*2.0, decayed.Tensor().Data()[0], 1e-9)
	assert.InDelta(t, 2.0-adamStep, preserved.Tensor().Data()[0], 1e-9)
}

func TestAdamWSkipsParamsWithoutGradient(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	opt := NewAdamW(groups, 0.1, nil, backend)
	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	assert.Equal(t, 1.0, p.Tensor().Data()[0])
}

func TestAdamWKwargs(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	opt := NewAdamW(groups, 0, map[string]float64{KwargBeta1: 0.5, KwargBeta2: 0.5, KwargEps: 1e-4}, backend)
	adamw, ok := opt.(*AdamW[testBackend])
	require.True(t, ok)
	assert.Equal(t, 1e-3, adamw.LR()) // zero lr falls back to default

	opt.Step(gradFor(t, backend, p, []float64{1.0}))
	assert.InDelta(t, 1.0-1e-3*1.0/(1.0+1e-4), p.Tensor().Data()[0], 1e-9)
}

func TestSGDStep(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	opt := NewSGD(groups, 0.1, nil, backend)
	opt.Step(gradFor(t, backend, p, []float64{2.0}))

	assert.InDelta(t, 0.8, p.Tensor().Data()[0], 1e-12)
}

func TestSGDMomentum(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	opt := NewSGD(groups, 0.1, map[string]float64{KwargMomentum: 0.9}, backend)
	opt.Step(gradFor(t, backend, p, []float64{1.0}))
	// buf = 1.0, w = 1.0 - 0.1 = 0.9
	opt.Step(gradFor(t, backend, p, []float64{1.0}))
	// buf = 0.9 + 1.0 = 1.9, w = 0.9 - 0.19 = 0.71
	assert.InDelta(t, 0.71, p.Tensor().Data()[0], 1e-12)
}

func TestZeroGrad(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{1.0})
	p.SetGrad(tensor.Ones[float64](tensor.Shape{1}, backend))
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	NewAdamW(groups, 0.1, nil, backend).ZeroGrad()

	assert.Nil(t, p.Grad())
}

func TestClipGradNorm(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{0, 0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	grads := gradFor(t, backend, p, []float64{3, 4})
	norm := ClipGradNorm(groups, grads, 1.0)

	assert.InDelta(t, 5.0, norm, 1e-12)
	clipped := grads[p.Tensor().Raw()].AsFloat64()
	clippedNorm := math.Hypot(clipped[0], clipped[1])
	assert.InDelta(t, 1.0, clippedNorm, 1e-5)
}

func TestClipGradNormBelowThreshold(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{0, 0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	grads := gradFor(t, backend, p, []float64{0.3, 0.4})
	norm := ClipGradNorm(groups, grads, 1.0)

	assert.InDelta(t, 0.5, norm, 1e-12)
	assert.Equal(t, []float64{0.3, 0.4}, grads[p.Tensor().Raw()].AsFloat64())
}

func TestClipGradNormDisabled(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", []float64{0, 0})
	groups := []ParamGroup[testBackend]{{Params: []*nn.Parameter[testBackend]{p}}}

	grads := gradFor(t, backend, p, []float64{30, 40})
	norm := ClipGradNorm(groups, grads, 0)

	assert.InDelta(t, 50.0, norm, 1e-12)
	assert.Equal(t, []float64{30, 40}, grads[p.Tensor().Raw()].AsFloat64())
}
