package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/parallel"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// MatMul multiplies the trailing two dimensions of a and b, broadcasting the
// leading batch dimensions NumPy-style.
//
//	[M, K] @ [K, N]          -> [M, N]
//	[B, M, K] @ [K, N]       -> [B, M, N]
//	[B, 1, M, K] @ [C, K, N] -> [B, C, M, N]
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	if a.Rank() < 2 || b.Rank() < 2 {
		panic(fmt.Sprintf("matmul: inputs must be at least 2D, got %dD and %dD", a.Rank(), b.Rank()))
	}

	aShape := a.Shape()
	bShape := b.Shape()
	m := aShape[len(aShape)-2]
	k := aShape[len(aShape)-1]
	kb := bShape[len(bShape)-2]
	n := bShape[len(bShape)-1]
	if k != kb {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}

	aBatch := aShape[:len(aShape)-2]
	bBatch := bShape[:len(bShape)-2]
	batch, err := tensor.BroadcastShapes(aBatch, bBatch)
	if err != nil {
		panic(fmt.Sprintf("matmul: incompatible batch dimensions: %v", err))
	}

	outShape := append(batch.Clone(), m, n)
	result, err := tensor.NewRaw(outShape, a.DType())
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulBatched[float32](result, a, b, batch, aBatch, bBatch, m, k, n, cpu.workers)
	case tensor.Float64:
		matmulBatched[float64](result, a, b, batch, aBatch, bBatch, m, k, n, cpu.workers)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}

func matmulBatched[T tensor.Float](result, a, b *tensor.RawTensor, batch, aBatch, bBatch tensor.Shape, m, k, n int, workers parallel.Config) {
	av := tensor.View[T](a)
	bv := tensor.View[T](b)
	out := tensor.View[T](result)

	batchStrides := batch.ComputeStrides()
	aStrides := broadcastStrides(aBatch, batch)
	bStrides := broadcastStrides(bBatch, batch)

	// Each batch index writes a disjoint m*n output block.
	parallel.For(batch.NumElements(), func(batchIdx int) {
		aOff := flatIndex(batchIdx, batchStrides, aStrides) * m * k
		bOff := flatIndex(batchIdx, batchStrides, bStrides) * k * n
		outOff := batchIdx * m * n

		for i := 0; i < m; i++ {
			aRow := av[aOff+i*k : aOff+(i+1)*k]
			outRow := out[outOff+i*n : outOff+(i+1)*n]
			for kk, aVal := range aRow {
				if aVal == 0 {
					continue
				}
				bRow := bv[bOff+kk*n : bOff+(kk+1)*n]
				for j, bVal := range bRow {
					outRow[j] += aVal * bVal
				}
			}
		}
	}, workers)
}
