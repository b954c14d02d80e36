// Package parallel provides the worker helpers used by the CPU backend to
// spread tensor kernels across cores.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count. Small kernels stay
// sequential; goroutine overhead dominates below MinChunkSize items.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For runs f(i) for every i in [0, n), splitting the range into contiguous
// chunks across worker goroutines. When parallelism is disabled or n is
// below the chunk threshold the loop runs inline on the calling goroutine.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinChunkSize {
		chunk = cfg.MinChunkSize
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}
