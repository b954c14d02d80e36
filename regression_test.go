package vbll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vbll/internal/autodiff"
	"github.com/born-ml/vbll/internal/backend/cpu"
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/optim"
	"github.com/born-ml/vbll/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() testBackend {
	return autodiff.New(cpu.New())
}

func newHead(t *testing.T, backend testBackend, h, k int) *Regression[testBackend] {
	t.Helper()
	head, err := NewRegression(RegressionConfig{InFeatures: h, OutFeatures: k}, backend)
	require.NoError(t, err)
	return head
}

func TestNewRegressionValidation(t *testing.T) {
	backend := newBackend()

	_, err := NewRegression[testBackend](RegressionConfig{InFeatures: 0, OutFeatures: 1}, backend)
	assert.ErrorContains(t, err, "InFeatures")

	_, err = NewRegression[testBackend](RegressionConfig{InFeatures: 4, OutFeatures: -1}, backend)
	assert.ErrorContains(t, err, "OutFeatures")
}

func TestPredictiveShapesAndPositiveVariance(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 8, 2)

	features := tensor.Randn[float64](tensor.Shape{5, 8}, backend)
	mean, variance := head.Forward(features).Predictive()

	assert.Equal(t, tensor.Shape{5, 2}, mean.Shape())
	assert.Equal(t, tensor.Shape{5, 2}, variance.Shape())
	for _, v := range variance.Data() {
		assert.Greater(t, v, 0.0)
	}
}

func TestPredictiveMeanMatchesWeights(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 2, 1)

	// M = [[1, 2]] so mean(φ) = φ0 + 2·φ1.
	copy(head.wMean.Tensor().Data(), []float64{1, 2})

	features, err := tensor.FromSlice([]float64{3, 4}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	mean, _ := head.Forward(features).Predictive()
	assert.InDelta(t, 11.0, mean.At(0, 0), 1e-12)
}

func TestTrainLossIsFiniteScalar(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 4, 1)

	features := tensor.Randn[float64](tensor.Shape{6, 4}, backend)
	targets := tensor.Randn[float64](tensor.Shape{6, 1}, backend)

	loss := head.Forward(features).TrainLoss(targets)

	assert.Equal(t, tensor.Shape{}, loss.Shape())
	assert.False(t, loss.Item() != loss.Item(), "loss is NaN")
}

func TestTrainLossDecreasesUnderOptimization(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 3, 1)
	head.SetRegularizationWeight(0.05)

	features := tensor.Randn[float64](tensor.Shape{20, 3}, backend)
	// Targets linear in the features so the head can actually fit them.
	targets := tensor.Zeros[float64](tensor.Shape{20, 1}, backend)
	for i := 0; i < 20; i++ {
		targets.Set(1.5*features.At(i, 0)-0.5*features.At(i, 2), i, 0)
	}

	groups := []optim.ParamGroup[testBackend]{{Params: head.Parameters()}}
	opt := optim.NewAdamW(groups, 0.05, nil, backend)
	tape := backend.Tape()

	var first, last float64
	for step := 0; step < 60; step++ {
		opt.ZeroGrad()
		tape.Clear()
		tape.StartRecording()
		loss := head.Forward(features).TrainLoss(targets)
		grads := autodiff.Backward(loss, backend)
		tape.StopRecording()
		opt.Step(grads)

		if step == 0 {
			first = loss.Item()
		}
		last = loss.Item()
	}
	tape.Clear()

	assert.Less(t, last, first)
}

func TestRegularizationWeightAccessors(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 4, 1)

	assert.Equal(t, 1.0, head.RegularizationWeight())
	head.SetRegularizationWeight(0.1)
	assert.Equal(t, 0.1, head.RegularizationWeight())
	head.SetRegularizationWeight(0.1)
	assert.Equal(t, 0.1, head.RegularizationWeight())
}

func TestRsampleShapes(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 6, 2)
	w := head.W()

	single := w.Rsample()
	assert.Equal(t, tensor.Shape{2, 6}, single.Shape())

	many := w.Rsample(4)
	assert.Equal(t, tensor.Shape{4, 2, 6}, many.Shape())

	assert.Panics(t, func() { w.Rsample(0) })
	assert.Panics(t, func() { w.Rsample(1, 2) })
}

func TestRsampleDrawsDiffer(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 6, 1)
	w := head.W()

	a, b := w.Rsample(), w.Rsample()
	assert.NotEqual(t, a.Data(), b.Data())
}

func TestWeightPosteriorMeanIsCopy(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 3, 1)

	mean := head.W().Mean()
	mean.Data()[0] += 100

	assert.NotEqual(t, mean.Data()[0], head.wMean.Tensor().Data()[0])
}

func TestStateDictRoundTrip(t *testing.T) {
	backend := newBackend()
	src := newHead(t, backend, 5, 2)
	dst := newHead(t, backend, 5, 2)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	for _, name := range []string{"W_mean", "W_offdiag", "W_logdiag", "noise_logdiag"} {
		assert.Equal(t, src.StateDict()[name].AsFloat64(), dst.StateDict()[name].AsFloat64(), name)
	}
}

func TestLoadStateDictMissingKey(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 5, 2)

	err := head.LoadStateDict(map[string]*tensor.RawTensor{})
	assert.ErrorContains(t, err, "missing")
}

func TestHeadParametersAreNamed(t *testing.T) {
	backend := newBackend()
	head := newHead(t, backend, 4, 2)

	params := head.Parameters()
	require.Len(t, params, 4)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"W_mean", "W_offdiag", "W_logdiag", "noise_logdiag"}, names)

	var _ []*nn.Parameter[testBackend] = params
}
