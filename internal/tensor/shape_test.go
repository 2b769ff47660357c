package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 5, Shape{5}.NumElements())
	// A scalar has one element.
	assert.Equal(t, 1, Shape{}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{7}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestNormalizeAxis(t *testing.T) {
	tests := []struct {
		axis, rank, want int
	}{
		{0, 3, 0},
		{2, 3, 2},
		{-1, 3, 2},
		{-3, 3, 0},
	}
	for _, tt := range tests {
		got, err := NormalizeAxis(tt.axis, tt.rank)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "axis %d rank %d", tt.axis, tt.rank)
	}

	_, err := NormalizeAxis(3, 3)
	assert.Error(t, err)
	_, err = NormalizeAxis(-4, 3)
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	got, err := BroadcastShapes(Shape{3, 1}, Shape{1, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, got)

	got, err = BroadcastShapes(Shape{5}, Shape{2, 5})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 5}, got)

	got, err = BroadcastShapes(Shape{}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got)

	_, err = BroadcastShapes(Shape{3, 4}, Shape{3, 5})
	assert.Error(t, err)
}
