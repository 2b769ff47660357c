package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func TestConv1DIdentityKernel(t *testing.T) {
	backend := New()
	// [1, 1, 5] input, [1, 1, 1] kernel of 1 -> unchanged.
	input := f32(t, []float32{1, 2, 3, 4, 5}, tensor.Shape{1, 1, 5})
	kernel := f32(t, []float32{1}, tensor.Shape{1, 1, 1})

	out := backend.Conv1D(input, kernel, 0, 1, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 5}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, out.AsFloat32())
}

func TestConv1DMovingSum(t *testing.T) {
	backend := New()
	input := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4})
	kernel := f32(t, []float32{1, 1}, tensor.Shape{1, 1, 2})

	out := backend.Conv1D(input, kernel, 0, 1, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 3}, out.Shape())
	assert.Equal(t, []float32{3, 5, 7}, out.AsFloat32())
}

func TestConv1DStrideAndPad(t *testing.T) {
	backend := New()
	input := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4})
	kernel := f32(t, []float32{1, 1}, tensor.Shape{1, 1, 2})

	// pad 1 both sides: [0 1 2 3 4 0], stride 2 -> windows (0,1) (2,3) (4,0)
	out := backend.Conv1D(input, kernel, 1, 2, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 3}, out.Shape())
	assert.Equal(t, []float32{1, 5, 4}, out.AsFloat32())
}

func TestConv2DAveragingKernel(t *testing.T) {
	backend := New()
	// 2x2 kernel of 0.25 averages each window.
	input := f32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := f32(t, []float32{0.25, 0.25, 0.25, 0.25}, tensor.Shape{1, 1, 2, 2})

	out := backend.Conv2D(input, kernel, 0, 1, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.InDeltaSlice(t, []float32{3, 4, 6, 7}, out.AsFloat32(), 1e-6)
}

func TestConv2DMultiChannel(t *testing.T) {
	backend := New()
	// Two input channels summed by a 1x1 kernel of ones.
	input := f32(t, []float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2})
	kernel := f32(t, []float32{1, 1}, tensor.Shape{1, 2, 1, 1})

	out := backend.Conv2D(input, kernel, 0, 1, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestConv2DGrouped(t *testing.T) {
	backend := New()
	// groups=2: each output channel sees only its own input channel.
	input := f32(t, []float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}, tensor.Shape{1, 2, 2, 2})
	kernel := f32(t, []float32{2, 3}, tensor.Shape{2, 1, 1, 1})

	out := backend.Conv2D(input, kernel, 0, 1, 1, 2)
	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 4, 6, 8, 30, 60, 90, 120}, out.AsFloat32())
}

func TestConv2DDilation(t *testing.T) {
	backend := New()
	// Dilation 2 spreads the 2x2 kernel over a 3x3 receptive field.
	input := f32(t, []float32{
		1, 0, 2,
		0, 0, 0,
		3, 0, 4,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := f32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := backend.Conv2D(input, kernel, 0, 1, 2, 1)
	assert.Equal(t, tensor.Shape{1, 1, 1, 1}, out.Shape())
	assert.Equal(t, []float32{10}, out.AsFloat32())
}

func TestConvPanicsOnBadGroups(t *testing.T) {
	backend := New()
	input := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := f32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	assert.Panics(t, func() { backend.Conv2D(input, kernel, 0, 1, 1, 3) })
}
