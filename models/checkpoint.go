package models

import (
	"github.com/born-ml/vbll/internal/checkpoint"
	"github.com/born-ml/vbll/internal/tensor"
)

// SaveCheckpoint writes a network's full parameter state to path.
//
// Together with Fit's initialization parameters this closes the
// continual-learning loop: save after fitting, reload before the next fit
// as new observations arrive.
func SaveCheckpoint[B tensor.Backend](path string, network *VBLLNetwork[B]) error {
	return checkpoint.Save(path, network.StateDict())
}

// LoadCheckpoint reads a parameter state written by SaveCheckpoint. The
// result can be passed to Fit as initialization parameters or loaded
// directly with VBLLNetwork.LoadStateDict.
func LoadCheckpoint(path string, device tensor.Device) (map[string]*tensor.RawTensor, error) {
	return checkpoint.Load(path, device)
}
