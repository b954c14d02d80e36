package cpu

import (
	"fmt"

	"github.com/born-ml/vbll/internal/parallel"
	"github.com/born-ml/vbll/internal/tensor"
)

// parallelCfg is shared by the matmul kernels. Output rows are independent,
// so they parallelize without synchronization.
var parallelCfg = parallel.DefaultConfig()

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("MatMul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("MatMul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	aData, bData := elems(a), elems(b)
	dst := make([]float64, m*n)

	parallel.For(m, func(i int) {
		matmulRow(aData[i*k:(i+1)*k], bData, dst[i*n:(i+1)*n], k, n)
	}, parallelCfg)

	out := newLike(a, tensor.Shape{m, n})
	store(out, dst)
	return out
}

// BatchMatMul performs batched matrix multiplication:
// (B, M, K) @ (B, K, N) → (B, M, N).
func (c *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 3 || len(bShape) != 3 {
		panic(fmt.Sprintf("BatchMatMul: expected 3D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[0] != bShape[0] {
		panic(fmt.Sprintf("BatchMatMul: batch dimensions mismatch: %v @ %v", aShape, bShape))
	}
	if aShape[2] != bShape[1] {
		panic(fmt.Sprintf("BatchMatMul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	batch, m, k, n := aShape[0], aShape[1], aShape[2], bShape[2]
	aData, bData := elems(a), elems(b)
	dst := make([]float64, batch*m*n)

	parallel.For(batch*m, func(bi int) {
		i, row := bi/m, bi%m
		aMat := aData[i*m*k : (i+1)*m*k]
		bMat := bData[i*k*n : (i+1)*k*n]
		dMat := dst[i*m*n : (i+1)*m*n]
		matmulRow(aMat[row*k:(row+1)*k], bMat, dMat[row*n:(row+1)*n], k, n)
	}, parallelCfg)

	out := newLike(a, tensor.Shape{batch, m, n})
	store(out, dst)
	return out
}

// matmulRow computes one output row: dRow = aRow @ b for row-major
// (k,) and (k, n) operands. The k-j loop order keeps the inner loop
// sequential in memory; zero entries skip a full pass.
func matmulRow(aRow, b, dRow []float64, k, n int) {
	for p := 0; p < k; p++ {
		av := aRow[p]
		if av == 0 {
			continue
		}
		bRow := b[p*n : (p+1)*n]
		for j := range bRow {
			dRow[j] += av * bRow[j]
		}
	}
}
