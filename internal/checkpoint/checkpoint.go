// Package checkpoint provides a native binary format for saving and loading
// surrogate model parameter states.
//
// Checkpoints serve the continual-learning loop: after each round of
// observations a fitted network's state dict is written out, and the next
// Fit call warm-starts from it via its initialization parameters.
//
// Format structure:
//
//	[4 bytes: magic "VBLL"]
//	[4 bytes: version (uint32 LE)]
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON tensor index]
//	[padding to 64-byte boundary]
//	[tensor data: raw little-endian bytes, in index order]
package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/born-ml/vbll/internal/tensor"
)

const (
	magic     = "VBLL"
	version   = 1
	alignment = 64
)

// ErrBadFormat is returned when a file is not a valid checkpoint.
var ErrBadFormat = errors.New("checkpoint: invalid file format")

type tensorEntry struct {
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

type header struct {
	Tensors map[string]tensorEntry `json:"tensors"`
}

// Save writes a parameter state dict to path, replacing any existing file.
func Save(path string, stateDict map[string]*tensor.RawTensor) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	hdr := header{Tensors: make(map[string]tensorEntry, len(names))}
	offset := uint64(0)
	for _, name := range names {
		raw := stateDict[name]
		size := uint64(raw.NumElements()) * uint64(raw.DType().Size())
		hdr.Tensors[name] = tensorEntry{
			DType:  raw.DType().String(),
			Shape:  raw.Shape(),
			Offset: offset,
			Size:   size,
		}
		offset += size
	}

	headerJSON, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("checkpoint: encoding header: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte(magic)); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(version)); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if _, err := f.Write(headerJSON); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	written := 4 + 4 + 8 + len(headerJSON)
	if pad := (alignment - written%alignment) % alignment; pad > 0 {
		if _, err := f.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}

	for _, name := range names {
		if err := writeTensorData(f, stateDict[name]); err != nil {
			return fmt.Errorf("checkpoint: writing %s: %w", name, err)
		}
	}
	return nil
}

// Load reads a parameter state dict from path. Tensors are materialized on
// the given device.
func Load(path string, device tensor.Device) (map[string]*tensor.RawTensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	if len(data) < 16 || string(data[:4]) != magic {
		return nil, ErrBadFormat
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != version {
		return nil, fmt.Errorf("checkpoint: unsupported version %d", v)
	}

	headerSize := binary.LittleEndian.Uint64(data[8:16])
	if uint64(len(data)) < 16+headerSize {
		return nil, ErrBadFormat
	}

	var hdr header
	if err := json.Unmarshal(data[16:16+headerSize], &hdr); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding header: %w", err)
	}

	dataStart := 16 + int(headerSize)
	if pad := (alignment - dataStart%alignment) % alignment; pad > 0 {
		dataStart += pad
	}
	payload := data[dataStart:]

	stateDict := make(map[string]*tensor.RawTensor, len(hdr.Tensors))
	for name, entry := range hdr.Tensors {
		if entry.Offset+entry.Size > uint64(len(payload)) {
			return nil, fmt.Errorf("checkpoint: tensor %s extends past end of file: %w", name, ErrBadFormat)
		}
		raw, err := readTensor(entry, payload[entry.Offset:entry.Offset+entry.Size], device)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: reading %s: %w", name, err)
		}
		stateDict[name] = raw
	}
	return stateDict, nil
}

func writeTensorData(f *os.File, raw *tensor.RawTensor) error {
	switch raw.DType() {
	case tensor.Float64:
		buf := make([]byte, 8*raw.NumElements())
		for i, v := range raw.AsFloat64() {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		_, err := f.Write(buf)
		return err
	case tensor.Float32:
		buf := make([]byte, 4*raw.NumElements())
		for i, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		_, err := f.Write(buf)
		return err
	default:
		return fmt.Errorf("unsupported dtype %s", raw.DType())
	}
}

func readTensor(entry tensorEntry, data []byte, device tensor.Device) (*tensor.RawTensor, error) {
	var dtype tensor.DataType
	switch entry.DType {
	case tensor.Float64.String():
		dtype = tensor.Float64
	case tensor.Float32.String():
		dtype = tensor.Float32
	default:
		return nil, fmt.Errorf("unsupported dtype %q", entry.DType)
	}

	shape := tensor.Shape(entry.Shape)
	if want := uint64(shape.NumElements()) * uint64(dtype.Size()); want != entry.Size {
		return nil, fmt.Errorf("shape %v needs %d bytes, entry has %d: %w", shape, want, entry.Size, ErrBadFormat)
	}

	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}

	switch dtype {
	case tensor.Float64:
		dst := raw.AsFloat64()
		for i := range dst {
			dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case tensor.Float32:
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	}
	return raw, nil
}
