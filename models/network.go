package models

import (
	"fmt"
	"strings"

	"github.com/born-ml/vbll"
	"github.com/born-ml/vbll/internal/nn"
	"github.com/born-ml/vbll/internal/tensor"
)

// NetworkConfig configures a VBLLNetwork.
// Zero-valued fields fall back to defaults.
type NetworkConfig[B tensor.Backend] struct {
	InFeatures  int // Input dimension D (required)
	OutFeatures int // Output dimension K (required)

	// HiddenFeatures is the backbone embedding width H. Default: 64.
	HiddenFeatures int

	// NumLayers is the number of hidden (H→H, activation) blocks after the
	// input layer. Default: 3.
	NumLayers int

	// KLScale scales the head's KL penalty. Fit divides it by the number of
	// training points so the per-datum regularization stays calibrated as
	// data accumulates. Fixed at construction. Default: 1.0.
	KLScale float64

	// Backbone replaces the default MLP backbone. It must map [batch, D]
	// to [batch, HiddenFeatures].
	Backbone nn.Module[B]

	// PriorScale and WishartScale are forwarded to the head.
	PriorScale   float64
	WishartScale float64
}

func (c NetworkConfig[B]) withDefaults() NetworkConfig[B] {
	if c.HiddenFeatures == 0 {
		c.HiddenFeatures = 64
	}
	if c.NumLayers == 0 {
		c.NumLayers = 3
	}
	if c.KLScale == 0 {
		c.KLScale = 1.0
	}
	return c
}

// VBLLNetwork composes a feature-extracting backbone with a variational
// Bayesian last-layer regression head into one differentiable function.
type VBLLNetwork[B tensor.Backend] struct {
	backbone nn.Module[B]
	head     *vbll.Regression[B]

	inFeatures     int
	outFeatures    int
	hiddenFeatures int
	klScale        float64

	backend B
}

// NewVBLLNetwork builds a network from the config. Without an explicit
// Backbone it constructs the default MLP: (D→H, ELU) then NumLayers blocks
// of (H→H, ELU).
func NewVBLLNetwork[B tensor.Backend](cfg NetworkConfig[B], backend B) (*VBLLNetwork[B], error) {
	if cfg.InFeatures <= 0 {
		return nil, fmt.Errorf("models: InFeatures must be positive, got %d", cfg.InFeatures)
	}
	if cfg.OutFeatures <= 0 {
		return nil, fmt.Errorf("models: OutFeatures must be positive, got %d", cfg.OutFeatures)
	}
	cfg = cfg.withDefaults()

	backbone := cfg.Backbone
	if backbone == nil {
		layers := []nn.Module[B]{
			nn.NewLinear(cfg.InFeatures, cfg.HiddenFeatures, backend),
			nn.NewELU[B](1.0),
		}
		for i := 0; i < cfg.NumLayers; i++ {
			layers = append(layers,
				nn.NewLinear(cfg.HiddenFeatures, cfg.HiddenFeatures, backend),
				nn.NewELU[B](1.0),
			)
		}
		backbone = nn.NewSequential(layers...)
	}

	head, err := vbll.NewRegression(vbll.RegressionConfig{
		InFeatures:   cfg.HiddenFeatures,
		OutFeatures:  cfg.OutFeatures,
		PriorScale:   cfg.PriorScale,
		WishartScale: cfg.WishartScale,
	}, backend)
	if err != nil {
		return nil, err
	}

	return &VBLLNetwork[B]{
		backbone:       backbone,
		head:           head,
		inFeatures:     cfg.InFeatures,
		outFeatures:    cfg.OutFeatures,
		hiddenFeatures: cfg.HiddenFeatures,
		klScale:        cfg.KLScale,
		backend:        backend,
	}, nil
}

// Forward pipes inputs of shape [batch, D] through the backbone into the
// head and returns the head's predictive/loss object.
func (n *VBLLNetwork[B]) Forward(x *tensor.Tensor[float64, B]) *vbll.Output[B] {
	return n.head.Forward(n.backbone.Forward(x))
}

// SamplePosteriorFunction draws weights from the head's posterior and binds
// them to the shared backbone.
//
// Without arguments it returns a single-draw function ([M, K] outputs);
// with one argument s it returns an s-draw function ([s, M, K] outputs).
func (n *VBLLNetwork[B]) SamplePosteriorFunction(sampleShape ...int) *SampledFunction[B] {
	w := n.head.W()
	switch len(sampleShape) {
	case 0:
		return NewSampledFunction(n.backbone, w.Rsample())
	case 1:
		s := sampleShape[0]
		if s <= 0 {
			panic(fmt.Sprintf("models: sample count must be positive, got %d", s))
		}
		draws := make([]*tensor.Tensor[float64, B], s)
		for i := range draws {
			draws[i] = w.Rsample()
		}
		return NewBatchedSampledFunction(n.backbone, draws)
	default:
		panic("models: SamplePosteriorFunction supports at most one sample dimension")
	}
}

// Backbone returns the feature extractor.
func (n *VBLLNetwork[B]) Backbone() nn.Module[B] { return n.backbone }

// Head returns the variational regression head.
func (n *VBLLNetwork[B]) Head() *vbll.Regression[B] { return n.head }

// InFeatures returns the input dimension D.
func (n *VBLLNetwork[B]) InFeatures() int { return n.inFeatures }

// OutFeatures returns the output dimension K.
func (n *VBLLNetwork[B]) OutFeatures() int { return n.outFeatures }

// KLScale returns the construction-time KL scale.
func (n *VBLLNetwork[B]) KLScale() float64 { return n.klScale }

// BackboneParameters returns the backbone's trainable parameters.
func (n *VBLLNetwork[B]) BackboneParameters() []*nn.Parameter[B] {
	return n.backbone.Parameters()
}

// HeadParameters returns the head's trainable parameters.
func (n *VBLLNetwork[B]) HeadParameters() []*nn.Parameter[B] {
	return n.head.Parameters()
}

// Parameters returns all trainable parameters (backbone then head).
func (n *VBLLNetwork[B]) Parameters() []*nn.Parameter[B] {
	return append(n.backbone.Parameters(), n.head.Parameters()...)
}

// StateDict returns the full parameter state, backbone entries prefixed
// "backbone." and head entries prefixed "head.".
func (n *VBLLNetwork[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range n.backbone.StateDict() {
		stateDict["backbone."+name] = raw
	}
	for name, raw := range n.head.StateDict() {
		stateDict["head."+name] = raw
	}
	return stateDict
}

// LoadStateDict loads a full parameter state produced by StateDict.
func (n *VBLLNetwork[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	backboneState := make(map[string]*tensor.RawTensor)
	headState := make(map[string]*tensor.RawTensor)
	for key, raw := range stateDict {
		switch {
		case strings.HasPrefix(key, "backbone."):
			backboneState[strings.TrimPrefix(key, "backbone.")] = raw
		case strings.HasPrefix(key, "head."):
			headState[strings.TrimPrefix(key, "head.")] = raw
		default:
			return fmt.Errorf("models: unrecognized state dict key %q", key)
		}
	}
	if err := n.backbone.LoadStateDict(backboneState); err != nil {
		return fmt.Errorf("models: loading backbone state: %w", err)
	}
	if err := n.head.LoadStateDict(headState); err != nil {
		return fmt.Errorf("models: loading head state: %w", err)
	}
	return nil
}
