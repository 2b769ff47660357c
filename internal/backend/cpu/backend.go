// Package cpu implements the reference CPU backend for the graph evaluator.
//
// All kernels are pure Go. Operations allocate a fresh result tensor and
// never mutate their inputs; contract violations (mismatched dtypes, shapes
// that cannot broadcast) panic, as the evaluator is expected to validate
// operator semantics before dispatching here.
package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/parallel"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// CPUBackend implements tensor.Backend with portable Go kernels. The
// convolution and pooling kernels split their batch*channel outer loops
// across worker goroutines.
type CPUBackend struct {
	workers parallel.Config
}

// New creates a new CPU backend with worker parallelism sized to the
// machine.
func New() *CPUBackend {
	return &CPUBackend{workers: parallel.DefaultConfig()}
}

// NewSequential creates a CPU backend that runs every kernel on the calling
// goroutine. Useful for deterministic profiling.
func NewSequential() *CPUBackend {
	return &CPUBackend{workers: parallel.Sequential()}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("add", a, b, binKernels{
		f32: func(x, y float32) float32 { return x + y },
		f64: func(x, y float64) float64 { return x + y },
		i32: func(x, y int32) int32 { return x + y },
		i64: func(x, y int64) int64 { return x + y },
		u8:  func(x, y uint8) uint8 { return x + y },
	})
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("sub", a, b, binKernels{
		f32: func(x, y float32) float32 { return x - y },
		f64: func(x, y float64) float64 { return x - y },
		i32: func(x, y int32) int32 { return x - y },
		i64: func(x, y int64) int64 { return x - y },
		u8:  func(x, y uint8) uint8 { return x - y },
	})
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("mul", a, b, binKernels{
		f32: func(x, y float32) float32 { return x * y },
		f64: func(x, y float64) float64 { return x * y },
		i32: func(x, y int32) int32 { return x * y },
		i64: func(x, y int64) int64 { return x * y },
		u8:  func(x, y uint8) uint8 { return x * y },
	})
}

// Div performs element-wise division with broadcasting. Integer dtypes use
// truncated division.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("div", a, b, binKernels{
		f32: func(x, y float32) float32 { return x / y },
		f64: func(x, y float64) float64 { return x / y },
		i32: func(x, y int32) int32 { return x / y },
		i64: func(x, y int64) int64 { return x / y },
		u8:  func(x, y uint8) uint8 { return x / y },
	})
}

// Maximum takes the element-wise maximum with broadcasting.
func (cpu *CPUBackend) Maximum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("maximum", a, b, binKernels{
		f32: larger[float32],
		f64: larger[float64],
		i32: larger[int32],
		i64: larger[int64],
		u8:  larger[uint8],
	})
}

// Minimum takes the element-wise minimum with broadcasting.
func (cpu *CPUBackend) Minimum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return numericBinary("minimum", a, b, binKernels{
		f32: smaller[float32],
		f64: smaller[float64],
		i32: smaller[int32],
		i64: smaller[int64],
		u8:  smaller[uint8],
	})
}

// larger and smaller mirror the min/max builtins as instantiable functions,
// since builtins cannot be used as function values.
func larger[T tensor.Numeric](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func smaller[T tensor.Numeric](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Equal compares element-wise with broadcasting and returns a Bool tensor.
func (cpu *CPUBackend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("equal: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	switch a.DType() {
	case tensor.Float32:
		return compareOp("equal", a, b, func(x, y float32) bool { return x == y })
	case tensor.Float64:
		return compareOp("equal", a, b, func(x, y float64) bool { return x == y })
	case tensor.Int32:
		return compareOp("equal", a, b, func(x, y int32) bool { return x == y })
	case tensor.Int64:
		return compareOp("equal", a, b, func(x, y int64) bool { return x == y })
	case tensor.Uint8:
		return compareOp("equal", a, b, func(x, y uint8) bool { return x == y })
	case tensor.Bool:
		return compareOp("equal", a, b, func(x, y bool) bool { return x == y })
	default:
		panic(fmt.Sprintf("equal: unsupported dtype %s", a.DType()))
	}
}
