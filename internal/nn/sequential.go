package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/vbll/internal/tensor"
)

// Sequential chains modules so that each module's output becomes the next
// module's input. It is the standard container for MLP backbones:
//
//	backbone := nn.NewSequential[B](
//	    nn.NewLinear(2, 64, backend),
//	    nn.NewELU[B](1.0),
//	    nn.NewLinear(64, 64, backend),
//	    nn.NewELU[B](1.0),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward pipes the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters collects the trainable parameters of every module, in module
// order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(m Module[B]) {
	s.modules = append(s.modules, m)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the module at the given index.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("nn: Sequential module index out of range")
	}
	return s.modules[index]
}

// StateDict returns all parameters keyed by "<index>.<name>" so that
// modules with identical parameter names do not collide.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, module := range s.modules {
		for name, raw := range module.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads parameters keyed by "<index>.<name>" into the
// corresponding modules.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, module := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		moduleStateDict := make(map[string]*tensor.RawTensor)
		for key, raw := range stateDict {
			if strings.HasPrefix(key, prefix) {
				moduleStateDict[key[len(prefix):]] = raw
			}
		}
		if len(moduleStateDict) > 0 {
			if err := module.LoadStateDict(moduleStateDict); err != nil {
				return fmt.Errorf("failed to load module %d: %w", i, err)
			}
		}
	}
	return nil
}
