package models

import (
	"github.com/born-ml/vbll/internal/optim"
	"github.com/born-ml/vbll/internal/tensor"
)

// OptimizationSettings configures one Fit call. Zero-valued fields fall
// back to defaults; callers only set what they want to change:
//
//	model.Fit(x, y, &models.OptimizationSettings[B]{NumEpochs: 500}, nil)
type OptimizationSettings[B tensor.Backend] struct {
	// NumEpochs is the maximum number of passes over the dataset.
	// Default: 10000.
	NumEpochs int

	// Patience is the number of epochs without improvement of the average
	// epoch loss before training stops early. Default: 100.
	Patience int

	// FreezeBackbone excludes backbone parameters from the optimizer
	// entirely; they receive no updates of any kind. Default: false.
	FreezeBackbone bool

	// BatchSize is the mini-batch size. Default: 32.
	BatchSize int

	// Optimizer constructs the optimizer over the assembled parameter
	// groups. Default: AdamW.
	Optimizer optim.Constructor[B]

	// LR is the learning rate. Default: 1e-3.
	LR float64

	// WD is the weight decay applied to backbone parameters only; the head
	// is never decayed. Default: 1e-4.
	WD float64

	// ClipVal is the global gradient-norm clip threshold. Nil defaults to
	// 1.0; a non-positive value disables clipping.
	ClipVal *float64

	// OptimizerKwargs is passed through to the optimizer constructor
	// (e.g., "beta1", "momentum").
	OptimizerKwargs map[string]float64
}

// DefaultOptimizationSettings returns the default training configuration.
func DefaultOptimizationSettings[B tensor.Backend]() *OptimizationSettings[B] {
	clip := 1.0
	return &OptimizationSettings[B]{
		NumEpochs: 10000,
		Patience:  100,
		BatchSize: 32,
		Optimizer: optim.NewAdamW[B],
		LR:        1e-3,
		WD:        1e-4,
		ClipVal:   &clip,
	}
}

// withDefaults merges caller-supplied settings over the defaults.
// A nil receiver yields the defaults unchanged.
func (s *OptimizationSettings[B]) withDefaults() *OptimizationSettings[B] {
	merged := DefaultOptimizationSettings[B]()
	if s == nil {
		return merged
	}
	if s.NumEpochs != 0 {
		merged.NumEpochs = s.NumEpochs
	}
	if s.Patience != 0 {
		merged.Patience = s.Patience
	}
	merged.FreezeBackbone = s.FreezeBackbone
	if s.BatchSize != 0 {
		merged.BatchSize = s.BatchSize
	}
	if s.Optimizer != nil {
		merged.Optimizer = s.Optimizer
	}
	if s.LR != 0 {
		merged.LR = s.LR
	}
	if s.WD != 0 {
		merged.WD = s.WD
	}
	if s.ClipVal != nil {
		merged.ClipVal = s.ClipVal
	}
	if s.OptimizerKwargs != nil {
		merged.OptimizerKwargs = s.OptimizerKwargs
	}
	return merged
}
