package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/vbll/internal/autodiff"
	"github.com/born-ml/vbll/internal/optim"
	"github.com/born-ml/vbll/internal/tensor"
	"github.com/born-ml/vbll/posteriors"
)

// ErrNotImplemented is returned by Sample on the base model; concrete
// models choose their own sampling strategy.
var ErrNotImplemented = errors.New("models: sample is not implemented for this model")

// BLLModelBase is the shared orchestration core for Bayesian last-layer
// surrogate models: it owns a VBLLNetwork and implements Fit and Posterior.
// Sample is a variation point; the base returns ErrNotImplemented.
//
// Fit mutates the network's parameters in place; Posterior and Sample are
// read-only with respect to parameters. The model is not safe for
// concurrent use; callers invoking Fit/Posterior/Sample from multiple
// goroutines must synchronize externally.
type BLLModelBase[B autodiff.BackwardCapable] struct {
	network *VBLLNetwork[B]
	backend B
	logger  *zap.Logger
}

// Option configures a model at construction.
type Option[B autodiff.BackwardCapable] func(*BLLModelBase[B])

// WithLogger attaches a logger for the end-of-fit diagnostic. The default
// is a nop logger.
func WithLogger[B autodiff.BackwardCapable](logger *zap.Logger) Option[B] {
	return func(m *BLLModelBase[B]) {
		m.logger = logger
	}
}

// NewBLLModelBase creates the orchestration core around a network.
func NewBLLModelBase[B autodiff.BackwardCapable](network *VBLLNetwork[B], backend B, opts ...Option[B]) *BLLModelBase[B] {
	m := &BLLModelBase[B]{
		network: network,
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Network returns the owned surrogate network.
func (m *BLLModelBase[B]) Network() *VBLLNetwork[B] { return m.network }

// NumOutputs returns the network's output dimension K.
func (m *BLLModelBase[B]) NumOutputs() int { return m.network.OutFeatures() }

// SetRegWeight forwards to the head's mutable regularization weight. Fit
// calls this with klScale/N; it is exposed for manual override.
func (m *BLLModelBase[B]) SetRegWeight(w float64) {
	m.network.Head().SetRegularizationWeight(w)
}

// Fit trains the network on (trainX, trainY) in place.
//
// trainX must be [N, D] and trainY [N, K] with N ≥ 1. Settings may be nil
// for defaults; initParams, when non-nil, is a full parameter snapshot
// loaded before the optimizer is built (warm start for continual learning).
//
// Training runs shuffled mini-batches per epoch, tracks the average epoch
// loss, snapshots the parameter state on every strict improvement, stops
// after Patience epochs without one, and finally restores the best
// snapshot. Numerical divergence (NaN/Inf losses) is not detected or
// recovered; degenerate losses simply stop improving the best snapshot.
func (m *BLLModelBase[B]) Fit(trainX, trainY *tensor.Tensor[float64, B], settings *OptimizationSettings[B], initParams map[string]*tensor.RawTensor) error {
	xShape, yShape := trainX.Shape(), trainY.Shape()
	if len(xShape) != 2 || len(yShape) != 2 {
		return fmt.Errorf("models: Fit expects 2D trainX and trainY, got %v and %v", xShape, yShape)
	}
	n := xShape[0]
	if n < 1 {
		return fmt.Errorf("models: Fit needs at least one training example")
	}
	if yShape[0] != n {
		return fmt.Errorf("models: trainX has %d examples but trainY has %d", n, yShape[0])
	}
	if xShape[1] != m.network.InFeatures() {
		return fmt.Errorf("models: trainX feature dimension %d does not match network input %d", xShape[1], m.network.InFeatures())
	}
	if yShape[1] != m.network.OutFeatures() {
		return fmt.Errorf("models: trainY output dimension %d does not match network output %d", yShape[1], m.network.OutFeatures())
	}

	cfg := settings.withDefaults()

	if initParams != nil {
		if err := m.network.LoadStateDict(initParams); err != nil {
			return fmt.Errorf("models: loading initialization params: %w", err)
		}
	}

	// Per-datum KL calibration: the penalty's effective strength shrinks as
	// data accumulates.
	m.SetRegWeight(m.network.KLScale() / float64(n))

	// The head is never weight decayed; its parameters define a posterior,
	// not point weights. A frozen backbone is excluded from the optimizer
	// entirely.
	groups := []optim.ParamGroup[B]{
		{Params: m.network.HeadParameters(), WeightDecay: 0},
	}
	if !cfg.FreezeBackbone {
		groups = append(groups, optim.ParamGroup[B]{
			Params:      m.network.BackboneParameters(),
			WeightDecay: cfg.WD,
		})
	}

	opt := cfg.Optimizer(groups, cfg.LR, cfg.OptimizerKwargs, m.backend)

	tape := m.backend.GetTape()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	bestLoss := math.Inf(1)
	var snapshot map[string]*tensor.RawTensor
	noImprovement := 0
	earlyStopped := false
	stopEpoch := 0

	var epochLosses []float64
	for epoch := 1; epoch <= cfg.NumEpochs; epoch++ {
		stopEpoch = epoch
		//nolint:gosec // math/rand for mini-batch shuffling (not security-critical)
		perm := rand.Perm(n)
		epochLosses = epochLosses[:0]

		for start := 0; start < n; start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, n)
			batchX, batchY := m.gatherBatch(trainX, trainY, perm[start:end])

			opt.ZeroGrad()
			tape.Clear()
			tape.StartRecording()

			loss := m.network.Forward(batchX).TrainLoss(batchY)
			grads := autodiff.Backward(loss, m.backend)
			tape.StopRecording()

			if cfg.ClipVal != nil && *cfg.ClipVal > 0 {
				optim.ClipGradNorm(groups, grads, *cfg.ClipVal)
			}
			opt.Step(grads)

			epochLosses = append(epochLosses, loss.Item())
		}

		// Average exactly this epoch's batch losses.
		avg := 0.0
		for _, l := range epochLosses {
			avg += l
		}
		avg /= float64(len(epochLosses))

		if avg < bestLoss {
			bestLoss = avg
			snapshot = cloneStateDict(m.network.StateDict())
			noImprovement = 0
		} else {
			noImprovement++
		}

		if noImprovement >= cfg.Patience {
			earlyStopped = true
			break
		}
	}

	if snapshot != nil {
		if err := m.network.LoadStateDict(snapshot); err != nil {
			return fmt.Errorf("models: restoring best snapshot: %w", err)
		}
	}

	m.logger.Info("fit finished",
		zap.Int("stop_epoch", stopEpoch),
		zap.Float64("best_loss", bestLoss),
		zap.Bool("early_stopped", earlyStopped),
	)
	return nil
}

// Posterior evaluates the joint predictive distribution at query points x,
// either unbatched [q, D] or batched [b, q, D].
//
// The head predicts each point independently with a diagonal K-output
// covariance, so the joint over the q·K flattened predictions is exactly
// block-diagonal: zero covariance across points and across batch elements.
// Posterior is read-only; calling it twice without an intervening Fit
// yields identical results.
func (m *BLLModelBase[B]) Posterior(x *tensor.Tensor[float64, B]) (*posteriors.BLLPosterior, error) {
	shape := x.Shape()
	batched := len(shape) == 3
	if len(shape) != 2 && !batched {
		return nil, fmt.Errorf("models: Posterior expects [points, features] or [batch, points, features] input, got %v", shape)
	}
	if shape[len(shape)-1] != m.network.InFeatures() {
		return nil, fmt.Errorf("models: query feature dimension %d does not match network input %d",
			shape[len(shape)-1], m.network.InFeatures())
	}

	// Always-batched internal form; the synthetic axis is dropped again at
	// the boundary via the batched flag.
	b, q := 1, shape[0]
	if batched {
		b, q = shape[0], shape[1]
	}
	k := m.network.OutFeatures()

	flat := x
	if batched {
		flat = x.Reshape(b*q, shape[2])
	}
	mean, variance := m.network.Forward(flat).Predictive() // [b·q, K] each

	mvns := make([]*posteriors.MultivariateNormal, b)
	dim := q * k
	for bi := 0; bi < b; bi++ {
		jointMean := make([]float64, dim)
		cov := mat.NewSymDense(dim, nil)
		for qi := 0; qi < q; qi++ {
			for ki := 0; ki < k; ki++ {
				idx := qi*k + ki
				jointMean[idx] = mean.At(bi*q+qi, ki)
				cov.SetSym(idx, idx, variance.At(bi*q+qi, ki))
			}
		}
		mvn, err := posteriors.NewMultivariateNormal(jointMean, cov)
		if err != nil {
			return nil, err
		}
		mvns[bi] = mvn
	}

	return posteriors.NewBLLPosterior(mvns, q, k, batched)
}

// Sample is the base model's variation point. Concrete models implement
// their own sampling strategy; the base only signals misuse.
func (m *BLLModelBase[B]) Sample(sampleShape ...int) (*SampledFunction[B], error) {
	return nil, ErrNotImplemented
}

// gatherBatch copies the rows selected by indices into fresh batch tensors.
func (m *BLLModelBase[B]) gatherBatch(trainX, trainY *tensor.Tensor[float64, B], indices []int) (batchX, batchY *tensor.Tensor[float64, B]) {
	d := trainX.Shape()[1]
	k := trainY.Shape()[1]
	bs := len(indices)

	batchX = tensor.Zeros[float64](tensor.Shape{bs, d}, m.backend)
	batchY = tensor.Zeros[float64](tensor.Shape{bs, k}, m.backend)

	xSrc, ySrc := trainX.Data(), trainY.Data()
	xDst, yDst := batchX.Data(), batchY.Data()
	for i, idx := range indices {
		copy(xDst[i*d:(i+1)*d], xSrc[idx*d:(idx+1)*d])
		copy(yDst[i*k:(i+1)*k], ySrc[idx*k:(idx+1)*k])
	}
	return batchX, batchY
}

// cloneStateDict deep-copies a parameter state so later training steps
// cannot mutate the snapshot.
func cloneStateDict(stateDict map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(stateDict))
	for name, raw := range stateDict {
		out[name] = raw.Clone()
	}
	return out
}
