package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func TestMaxPool2D(t *testing.T) {
	backend := New()
	input := f32(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		13, 14, 9, 10,
		15, 16, 11, 12,
	}, tensor.Shape{1, 1, 4, 4})

	out := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{2, 2})
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	// Each output element is the maximum of its 2x2 block.
	assert.Equal(t, []float32{4, 8, 16, 12}, out.AsFloat32())
}

func TestMaxPool2DStrideOne(t *testing.T) {
	backend := New()
	input := f32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})

	out := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{1, 1})
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{5, 6, 8, 9}, out.AsFloat32())
}

func TestMaxPool2DNegativeValues(t *testing.T) {
	backend := New()
	input := f32(t, []float32{
		-5, -2,
		-3, -8,
	}, tensor.Shape{1, 1, 2, 2})

	out := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{2, 2})
	assert.Equal(t, []float32{-2}, out.AsFloat32())
}

func TestAvgPool2D(t *testing.T) {
	backend := New()
	input := f32(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		13, 14, 9, 10,
		15, 16, 11, 12,
	}, tensor.Shape{1, 1, 4, 4})

	out := backend.AvgPool2D(input, [2]int{2, 2}, [2]int{2, 2})
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.InDeltaSlice(t, []float32{2.5, 6.5, 14.5, 10.5}, out.AsFloat32(), 1e-6)
}

func TestPool2DMultiBatchChannel(t *testing.T) {
	backend := New()
	// 2 batches x 2 channels, each plane pools independently.
	data := make([]float32, 2*2*2*2)
	for i := range data {
		data[i] = float32(i)
	}
	input := f32(t, data, tensor.Shape{2, 2, 2, 2})

	out := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{2, 2})
	assert.Equal(t, tensor.Shape{2, 2, 1, 1}, out.Shape())
	assert.Equal(t, []float32{3, 7, 11, 15}, out.AsFloat32())
}

func TestPoolPanicsOnKernelTooLarge(t *testing.T) {
	backend := New()
	input := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	assert.Panics(t, func() { backend.MaxPool2D(input, [2]int{3, 3}, [2]int{1, 1}) })
}
