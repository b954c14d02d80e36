package autodiff

import (
	"github.com/born-ml/vbll/internal/autodiff/ops"
	"github.com/born-ml/vbll/internal/tensor"
)

// GradientTape records forward-pass operations and replays them in reverse
// to compute gradients.
//
// The training loop drives its lifecycle directly: Clear and StartRecording
// before each forward pass, Backward after the loss is built, StopRecording
// once gradients are in hand.
type GradientTape struct {
	recorded  []ops.Operation
	recording bool
}

// NewGradientTape returns an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{recorded: make([]ops.Operation, 0, 64)}
}

// StartRecording turns on operation capture.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording turns off operation capture.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are currently being captured.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation if the tape is capturing; otherwise it is a
// no-op, so backends can call it unconditionally.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.recorded = append(t.recorded, op)
	}
}

// Clear drops all recorded operations. The recording flag is untouched.
func (t *GradientTape) Clear() {
	t.recorded = t.recorded[:0]
}

// NumOps returns how many operations the tape currently holds.
func (t *GradientTape) NumOps() int { return len(t.recorded) }

// Backward walks the tape in reverse, seeding the final operation's output
// with outputGrad and chaining each operation's Backward through its inputs.
// Gradients for tensors used more than once accumulate by addition. The
// returned map is keyed by RawTensor identity.
//
// Capture is suspended for the duration so gradient math does not re-enter
// the tape.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.recorded) == 0 {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[t.recorded[len(t.recorded)-1].Output()] = outputGrad

	for i := len(t.recorded) - 1; i >= 0; i-- {
		op := t.recorded[i]
		upstream, reached := grads[op.Output()]
		if !reached {
			continue
		}

		downstream := op.Backward(upstream, backend)
		for j, in := range op.Inputs() {
			if j >= len(downstream) || downstream[j] == nil {
				continue
			}
			if acc, ok := grads[in]; ok {
				grads[in] = backend.Add(acc, downstream[j])
			} else {
				grads[in] = downstream[j]
			}
		}
	}
	return grads
}
