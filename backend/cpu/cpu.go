// Package cpu provides the pure Go CPU backend for tensor operations.
//
// The backend implements every kernel the evaluator dispatches, with the
// convolution, pooling and matmul outer loops spread across worker
// goroutines. It is safe for concurrent use: kernels allocate fresh results
// and never mutate their inputs.
package cpu

import (
	internalcpu "github.com/calyx-ml/onnxeval/internal/backend/cpu"
	"github.com/calyx-ml/onnxeval/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with worker parallelism sized to the machine.
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that runs every kernel on the calling
// goroutine.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
