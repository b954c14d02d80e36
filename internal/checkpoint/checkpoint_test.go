package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vbll/internal/tensor"
)

func rawFloat64(t *testing.T, shape tensor.Shape, values []float64) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), values)
	return raw
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vbll")

	stateDict := map[string]*tensor.RawTensor{
		"head.W_mean":    rawFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6}),
		"head.W_logdiag": rawFloat64(t, tensor.Shape{1, 3}, []float64{-0.5, 0.25, 1.75}),
	}

	require.NoError(t, Save(path, stateDict))

	loaded, err := Load(path, tensor.CPU)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	for name, want := range stateDict {
		got, ok := loaded[name]
		require.True(t, ok, name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, tensor.Float64, got.DType(), name)
		assert.Equal(t, want.AsFloat64(), got.AsFloat64(), name)
	}
}

func TestSaveOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vbll")

	first := map[string]*tensor.RawTensor{
		"w": rawFloat64(t, tensor.Shape{2}, []float64{1, 2}),
	}
	require.NoError(t, Save(path, first))

	second := map[string]*tensor.RawTensor{
		"w": rawFloat64(t, tensor.Shape{2}, []float64{7, 8}),
	}
	require.NoError(t, Save(path, second))

	loaded, err := Load(path, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, loaded["w"].AsFloat64())
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.vbll")
	require.NoError(t, os.WriteFile(path, []byte("GGUF12345678901234567890"), 0o644))

	_, err := Load(path, tensor.CPU)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.vbll")
	require.NoError(t, os.WriteFile(path, []byte("VBLL"), 0o644))

	_, err := Load(path, tensor.CPU)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vbll")
	stateDict := map[string]*tensor.RawTensor{
		"w": rawFloat64(t, tensor.Shape{1}, []float64{1}),
	}
	require.NoError(t, Save(path, stateDict))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[4] = 99 // bump the version field
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Load(path, tensor.CPU)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestLoadRejectsTruncatedTensorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vbll")
	stateDict := map[string]*tensor.RawTensor{
		"w": rawFloat64(t, tensor.Shape{4}, []float64{1, 2, 3, 4}),
	}
	require.NoError(t, Save(path, stateDict))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-8], 0o644))

	_, err = Load(path, tensor.CPU)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.vbll"), tensor.CPU)
	assert.Error(t, err)
}
