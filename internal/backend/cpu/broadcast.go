package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// broadcastStrides computes strides for reading inShape as if it had outShape:
// broadcast (size-1 or missing) dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// flatIndex maps a row-major output index to the flat index in a source
// array described by broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}

// applyBinary evaluates f over the broadcast of a and b into dst.
func applyBinary[T, R tensor.DType](dst *tensor.RawTensor, a, b *tensor.RawTensor, f func(T, T) R) {
	outShape := dst.Shape()
	out := tensor.View[R](dst)
	av := tensor.View[T](a)
	bv := tensor.View[T](b)

	if a.Shape().Equal(b.Shape()) {
		for i := range out {
			out[i] = f(av[i], bv[i])
		}
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	for i := range out {
		out[i] = f(av[flatIndex(i, outStrides, aStrides)], bv[flatIndex(i, outStrides, bStrides)])
	}
}

// binKernels bundles one arithmetic kernel per numeric dtype.
type binKernels struct {
	f32 func(float32, float32) float32
	f64 func(float64, float64) float64
	i32 func(int32, int32) int32
	i64 func(int64, int64) int64
	u8  func(uint8, uint8) uint8
}

// numericBinary runs a broadcasting binary operation, dispatching on dtype.
func numericBinary(name string, a, b *tensor.RawTensor, k binKernels) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	result, err := tensor.NewRaw(outShape, a.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		applyBinary(result, a, b, k.f32)
	case tensor.Float64:
		applyBinary(result, a, b, k.f64)
	case tensor.Int32:
		applyBinary(result, a, b, k.i32)
	case tensor.Int64:
		applyBinary(result, a, b, k.i64)
	case tensor.Uint8:
		applyBinary(result, a, b, k.u8)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// compareOp runs a broadcasting comparison producing a Bool tensor.
func compareOp[T tensor.DType](name string, a, b *tensor.RawTensor, f func(T, T) bool) *tensor.RawTensor {
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	result, err := tensor.NewRaw(outShape, tensor.Bool)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	applyBinary(result, a, b, f)
	return result
}
