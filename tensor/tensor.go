// Package tensor exposes the public tensor types used across the evaluator:
// the raw tensor representation, shapes, element types and the backend
// interface the numeric kernels implement.
package tensor

import (
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// DType is the constraint for tensor element types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// Numeric is the DType subset excluding bool.
type Numeric = tensor.Numeric

// Float is the DType subset of floating-point types.
type Float = tensor.Float

// DataType tags the element type of a tensor at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3-D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation: shape, element type and
// a shared storage buffer.
type RawTensor = tensor.RawTensor

// Backend is the interface the numeric kernels implement.
type Backend = tensor.Backend

// FromSlice creates a tensor from a typed slice and shape. The slice length
// must match the shape's element count.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromRawBytes creates a tensor by copying a little-endian byte buffer.
func FromRawBytes(data []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromRawBytes(data, shape, dtype)
}

// Full creates a tensor filled with a single value.
func Full[T DType](shape Shape, value T) (*RawTensor, error) {
	return tensor.Full(shape, value)
}

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// View reinterprets a tensor's storage as a typed slice without copying.
func View[T DType](r *RawTensor) []T {
	return tensor.View[T](r)
}

// BroadcastShapes computes the NumPy-style broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, error) {
	return tensor.BroadcastShapes(a, b)
}

// NormalizeAxis resolves a possibly-negative axis against a rank: a negative
// axis counts back from the end, so -1 is the last dimension.
func NormalizeAxis(axis, rank int) (int, error) {
	return tensor.NormalizeAxis(axis, rank)
}
