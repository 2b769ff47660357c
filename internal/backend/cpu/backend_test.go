package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func f32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func i64s(t *testing.T, data []int64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestAddSameShape(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := f32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := backend.Add(a, b)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())

	// Inputs stay untouched.
	assert.Equal(t, []float32{1, 2, 3, 4}, a.AsFloat32())
}

func TestAddBroadcast(t *testing.T) {
	backend := New()
	// (3, 1) + (1, 4) -> (3, 4)
	a := f32(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	b := f32(t, []float32{10, 20, 30, 40}, tensor.Shape{1, 4})

	out := backend.Add(a, b)
	assert.Equal(t, tensor.Shape{3, 4}, out.Shape())
	assert.Equal(t, []float32{
		11, 21, 31, 41,
		12, 22, 32, 42,
		13, 23, 33, 43,
	}, out.AsFloat32())
}

func TestAddBroadcastScalar(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	s := f32(t, []float32{10}, tensor.Shape{})

	out := backend.Add(a, s)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{11, 12, 13, 14}, out.AsFloat32())
}

func TestSubMulDivInt64(t *testing.T) {
	backend := New()
	a := i64s(t, []int64{10, 20, 30}, tensor.Shape{3})
	b := i64s(t, []int64{3, 4, 5}, tensor.Shape{3})

	assert.Equal(t, []int64{7, 16, 25}, backend.Sub(a, b).AsInt64())
	assert.Equal(t, []int64{30, 80, 150}, backend.Mul(a, b).AsInt64())
	// Integer division truncates.
	assert.Equal(t, []int64{3, 5, 6}, backend.Div(a, b).AsInt64())
}

func TestMaximumMinimum(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1, 5, -2}, tensor.Shape{3})
	b := f32(t, []float32{3, 2, -7}, tensor.Shape{3})

	assert.Equal(t, []float32{3, 5, -2}, backend.Maximum(a, b).AsFloat32())
	assert.Equal(t, []float32{1, 2, -7}, backend.Minimum(a, b).AsFloat32())
}

func TestMaximumMinimumInt64(t *testing.T) {
	backend := New()
	a := i64s(t, []int64{-10, 0, 7}, tensor.Shape{3})
	b := i64s(t, []int64{-3, -1, 7}, tensor.Shape{3})

	assert.Equal(t, []int64{-3, 0, 7}, backend.Maximum(a, b).AsInt64())
	assert.Equal(t, []int64{-10, -1, 7}, backend.Minimum(a, b).AsInt64())
}

func TestEqualProducesBool(t *testing.T) {
	backend := New()
	a := i64s(t, []int64{1, 2, 3, 4}, tensor.Shape{4})
	b := i64s(t, []int64{1, 0, 3, 0}, tensor.Shape{4})

	out := backend.Equal(a, b)
	assert.Equal(t, tensor.Bool, out.DType())
	assert.Equal(t, []bool{true, false, true, false}, out.AsBool())
}

func TestEqualBroadcast(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1, 2, 1, 2}, tensor.Shape{2, 2})
	b := f32(t, []float32{1, 2}, tensor.Shape{2})

	out := backend.Equal(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []bool{true, true, true, true}, out.AsBool())
}

func TestBinaryPanicsOnDTypeMismatch(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1}, tensor.Shape{1})
	b := i64s(t, []int64{1}, tensor.Shape{1})
	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestBinaryPanicsOnIncompatibleShapes(t *testing.T) {
	backend := New()
	a := f32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	assert.Panics(t, func() { backend.Add(a, b) })
}
