package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCoversAllIndices(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	const n = 1000
	var hits [n]int32
	For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, cfg)

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestForSequentialBelowChunkThreshold(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64}

	// Below the threshold the loop runs on the calling goroutine in order,
	// so an unsynchronized slice append is safe.
	var order []int
	For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestForDisabled(t *testing.T) {
	cfg := Config{Enabled: false, NumWorkers: 4, MinChunkSize: 1}

	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForZeroItems(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Positive(t, cfg.NumWorkers)
	assert.Equal(t, 64, cfg.MinChunkSize)
}
