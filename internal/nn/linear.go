package nn

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ Wᵀ + b.
//
// Shapes:
//   - x: [batch_size, in_features]
//   - W: [out_features, in_features]
//   - b: [out_features]
//   - y: [batch_size, out_features]
//
// Weights use Xavier/Glorot initialization, biases start at zero.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil when disabled
	backend     B
}

// NewLinear creates a Linear layer with bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ Wᵀ + b.
func (l *Linear[B]) Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	// [batch, in] @ [in, out] = [batch, out]
	output := input.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		// Reshape bias to [1, out] so broadcasting applies it per row.
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	return output
}

// Parameters returns [weight, bias], or [weight] when bias is disabled.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter (nil when disabled).
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// StateDict returns the layer's parameters keyed by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
	}
	if l.bias != nil {
		stateDict["bias"] = l.bias.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies parameter values from the state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParam(l.weight, stateDict, "weight", tensor.Shape{l.outFeatures, l.inFeatures}); err != nil {
		return err
	}
	if l.bias != nil {
		return loadParam(l.bias, stateDict, "bias", tensor.Shape{l.outFeatures})
	}
	return nil
}

// loadParam validates shape and dtype, then copies values into the parameter.
func loadParam[B tensor.Backend](p *Parameter[B], stateDict map[string]*tensor.RawTensor, key string, want tensor.Shape) error {
	raw, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", key, want, raw.Shape())
	}
	if raw.DType() != tensor.Float64 {
		return fmt.Errorf("%s dtype mismatch: expected float64, got %v", key, raw.DType())
	}
	copy(p.Tensor().Data(), raw.AsFloat64())
	return nil
}
