package autodiff

import (
	"fmt"

	"github.com/born-ml/vbll/internal/tensor"
)

// BackwardCapable is the backend constraint for code that needs to run a
// backward pass: a full tensor backend that also exposes a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward differentiates t with respect to everything on the backend's
// tape and returns the gradient map keyed by RawTensor identity.
//
// The seed gradient is all ones, i.e. t is treated as a scalar loss (or a
// sum of independent losses). Panics if the tape is empty, which almost
// always means StartRecording was never called.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: tape is empty; call Tape().StartRecording() before the forward pass")
	}

	seed, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: allocating seed gradient: %v", err))
	}
	fillOnes(seed)

	return tape.Backward(seed, backend)
}

func fillOnes(raw *tensor.RawTensor) {
	switch raw.DType() {
	case tensor.Float64:
		for i, data := 0, raw.AsFloat64(); i < len(data); i++ {
			data[i] = 1
		}
	case tensor.Float32:
		for i, data := 0, raw.AsFloat32(); i < len(data); i++ {
			data[i] = 1
		}
	}
}
