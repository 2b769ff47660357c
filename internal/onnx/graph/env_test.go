package graph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func TestEnvGetInsert(t *testing.T) {
	env := NewEnv(4)
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)

	env.Insert("x", x)
	got, err := env.Get("x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.AsFloat32())
	assert.Equal(t, 1, env.Len())
}

func TestEnvGetMissing(t *testing.T) {
	env := NewEnv(0)
	_, err := env.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingValue))
	assert.Contains(t, err.Error(), "nope")
}

func TestEnvInsertOverwrites(t *testing.T) {
	env := NewEnv(1)
	a, err := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{2}, tensor.Shape{1})
	require.NoError(t, err)

	env.Insert("v", a)
	env.Insert("v", b)
	got, err := env.Get("v")
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, got.AsFloat32())
	assert.Equal(t, 1, env.Len())
}

func TestEnvDrain(t *testing.T) {
	env := NewEnv(2)
	a, err := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{2}, tensor.Shape{1})
	require.NoError(t, err)
	env.Insert("a", a)
	env.Insert("b", b)

	out, err := env.Drain([]string{"a"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, []float32{1}, out["a"].AsFloat32())

	// Drained values leave the environment.
	_, err = env.Get("a")
	assert.Error(t, err)
	assert.Equal(t, 1, env.Len())
}

func TestEnvDrainMissingOutput(t *testing.T) {
	env := NewEnv(0)
	_, err := env.Drain([]string{"y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingValue))
	assert.Contains(t, err.Error(), `"y"`)
}
