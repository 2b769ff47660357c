package operators

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-ml/onnxeval/internal/backend/cpu"
	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func testCtx() *Context {
	return &Context{Backend: cpu.New()}
}

func run(t *testing.T, opType string, node *graph.NodeProto, inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	t.Helper()
	kind, ok := KindOf(opType)
	require.True(t, ok, "unknown op %s", opType)
	if node == nil {
		node = &graph.NodeProto{Name: "n0", OpType: opType}
	}
	node.OpType = opType
	return NewRegistry().Execute(testCtx(), kind, node, inputs)
}

func tf32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func ti64(t *testing.T, data []int64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestKindOfCoversAllNames(t *testing.T) {
	for _, name := range SupportedOps() {
		kind, ok := KindOf(name)
		require.True(t, ok, name)
		assert.Equal(t, name, kind.String())
	}
	_, ok := KindOf("NotAnOp")
	assert.False(t, ok)
}

func TestAddWrongArity(t *testing.T) {
	_, err := run(t, "Add", nil, tf32(t, []float32{1}, tensor.Shape{1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
	// Dispatch wraps with the node name and op type.
	assert.Contains(t, err.Error(), `"n0"`)
	assert.Contains(t, err.Error(), "Add")
}

func TestBinaryIncompatibleShapesError(t *testing.T) {
	a := tf32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	_, err := run(t, "Add", nil, a, b)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestReshapeInferMinusOne(t *testing.T) {
	data := make([]float32, 24)
	x := tf32(t, data, tensor.Shape{24})
	spec := ti64(t, []int64{-1, 3, 4}, tensor.Shape{3})

	out, err := run(t, "Reshape", nil, x, spec)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, out[0].Shape())
}

func TestReshapeZeroCopiesDim(t *testing.T) {
	x := tf32(t, make([]float32, 24), tensor.Shape{2, 12})
	spec := ti64(t, []int64{0, -1}, tensor.Shape{2})

	out, err := run(t, "Reshape", nil, x, spec)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 12}, out[0].Shape())
}

func TestReshapeZeroCountsTowardInference(t *testing.T) {
	// The copied dimension divides the element count: 24 / 2 = 12.
	x := tf32(t, make([]float32, 24), tensor.Shape{2, 3, 4})
	spec := ti64(t, []int64{0, -1}, tensor.Shape{2})

	out, err := run(t, "Reshape", nil, x, spec)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 12}, out[0].Shape())
}

func TestReshapeRejectsTwoInferredDims(t *testing.T) {
	x := tf32(t, make([]float32, 24), tensor.Shape{24})
	spec := ti64(t, []int64{-1, -1}, tensor.Shape{2})

	_, err := run(t, "Reshape", nil, x, spec)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestReshapeElementCountMismatch(t *testing.T) {
	x := tf32(t, make([]float32, 6), tensor.Shape{2, 3})
	spec := ti64(t, []int64{4, 2}, tensor.Shape{2})

	_, err := run(t, "Reshape", nil, x, spec)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestSqueezeDefaultKeepsLeadingAxis(t *testing.T) {
	// Without an axis list, size-1 dims are removed except axis 0.
	x := tf32(t, make([]float32, 12), tensor.Shape{1, 3, 1, 4})

	out, err := run(t, "Squeeze", nil, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 4}, out[0].Shape())
}

func TestSqueezeNegativeAxisInput(t *testing.T) {
	x := tf32(t, make([]float32, 10), tensor.Shape{2, 5, 1})
	axes := ti64(t, []int64{-1}, tensor.Shape{1})

	out, err := run(t, "Squeeze", nil, x, axes)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 5}, out[0].Shape())
}

func TestSqueezeNonUnitAxisFails(t *testing.T) {
	x := tf32(t, make([]float32, 10), tensor.Shape{2, 5})
	axes := ti64(t, []int64{0}, tensor.Shape{1})

	_, err := run(t, "Squeeze", nil, x, axes)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestUnsqueezeAxesAttr(t *testing.T) {
	x := tf32(t, make([]float32, 6), tensor.Shape{2, 3})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axes", Type: graph.AttrTypeInts, Ints: []int64{0, 3}},
	}}

	out, err := run(t, "Unsqueeze", node, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 3, 1}, out[0].Shape())
}

func TestFlattenDefaultAxis(t *testing.T) {
	x := tf32(t, make([]float32, 24), tensor.Shape{2, 3, 4})

	out, err := run(t, "Flatten", nil, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 12}, out[0].Shape())
}

func TestFlattenAxisZeroAndNegative(t *testing.T) {
	x := tf32(t, make([]float32, 24), tensor.Shape{2, 3, 4})

	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axis", Type: graph.AttrTypeInt, I: 0},
	}}
	out, err := run(t, "Flatten", node, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 24}, out[0].Shape())

	node = &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axis", Type: graph.AttrTypeInt, I: -1},
	}}
	out, err = run(t, "Flatten", node, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{6, 4}, out[0].Shape())
}

func TestConcatNegativeAxis(t *testing.T) {
	a := tf32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := tf32(t, make([]float32, 10), tensor.Shape{2, 5})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axis", Type: graph.AttrTypeInt, I: -1},
	}}

	out, err := run(t, "Concat", node, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 8}, out[0].Shape())
}

func TestConcatEmptyInputList(t *testing.T) {
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axis", Type: graph.AttrTypeInt, I: 0},
	}}
	_, err := run(t, "Concat", node)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestShapeOp(t *testing.T) {
	x := tf32(t, make([]float32, 24), tensor.Shape{2, 3, 4})

	out, err := run(t, "Shape", nil, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Int64, out[0].DType())
	assert.Equal(t, tensor.Shape{3}, out[0].Shape())
	assert.Equal(t, []int64{2, 3, 4}, out[0].AsInt64())
}

func TestSoftmaxDefaultLastAxis(t *testing.T) {
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	out, err := run(t, "Softmax", nil, x)
	require.NoError(t, err)
	v := out[0].AsFloat32()
	assert.InDelta(t, 1.0, v[0]+v[1], 1e-6)
	assert.InDelta(t, 1.0, v[2]+v[3], 1e-6)
}

func TestSoftmaxAxisOutOfRange(t *testing.T) {
	x := tf32(t, []float32{1, 2}, tensor.Shape{2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "axis", Type: graph.AttrTypeInt, I: 5},
	}}
	_, err := run(t, "Softmax", node, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestClipBothBounds(t *testing.T) {
	x := tf32(t, []float32{-5, 0, 5}, tensor.Shape{3})
	lo := tf32(t, []float32{-1}, tensor.Shape{})
	hi := tf32(t, []float32{1}, tensor.Shape{})

	out, err := run(t, "Clip", nil, x, lo, hi)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 0, 1}, out[0].AsFloat32())
}

func TestClipOnlyMax(t *testing.T) {
	// A skipped optional min arrives as nil.
	x := tf32(t, []float32{-5, 0, 5}, tensor.Shape{3})
	hi := tf32(t, []float32{1}, tensor.Shape{})

	out, err := run(t, "Clip", nil, x, nil, hi)
	require.NoError(t, err)
	assert.Equal(t, []float32{-5, 0, 1}, out[0].AsFloat32())
}

func TestClipNoBoundsPassesThrough(t *testing.T) {
	x := tf32(t, []float32{-5, 5}, tensor.Shape{2})

	out, err := run(t, "Clip", nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{-5, 5}, out[0].AsFloat32())
}

func TestConstantTensorValue(t *testing.T) {
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "value", Type: graph.AttrTypeTensor, T: &graph.TensorProto{
			DataType:  graph.DataTypeFloat,
			Dims:      []int64{2},
			FloatData: []float32{1, 2},
		}},
	}}

	out, err := run(t, "Constant", node)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, out[0].AsFloat32())
}

func TestConstantMissingValue(t *testing.T) {
	_, err := run(t, "Constant", nil)
	assert.True(t, errors.Is(err, graph.ErrMissingAttribute))
}

func TestConstantNonTensorValueFails(t *testing.T) {
	// Only the TENSOR representation is supported.
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "value", Type: graph.AttrTypeFloat, F: 1},
	}}
	_, err := run(t, "Constant", node)
	assert.True(t, errors.Is(err, graph.ErrAttributeType))
}

func TestCastToAttr(t *testing.T) {
	x := tf32(t, []float32{1.9, -2.9}, tensor.Shape{2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "to", Type: graph.AttrTypeInt, I: graph.DataTypeInt64},
	}}

	out, err := run(t, "Cast", node, x)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2}, out[0].AsInt64())
}

func TestCastMissingTo(t *testing.T) {
	x := tf32(t, []float32{1}, tensor.Shape{1})
	_, err := run(t, "Cast", nil, x)
	assert.True(t, errors.Is(err, graph.ErrMissingAttribute))
}

func TestIdentityAndDropout(t *testing.T) {
	x := tf32(t, []float32{1, 2, 3}, tensor.Shape{3})

	out, err := run(t, "Identity", nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, out[0].AsFloat32())

	out, err = run(t, "Dropout", nil, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, out[0].AsFloat32())
}

func TestDropoutMaskOutputUnsupported(t *testing.T) {
	x := tf32(t, []float32{1}, tensor.Shape{1})
	node := &graph.NodeProto{Name: "n0", Outputs: []string{"y", "mask"}}
	_, err := run(t, "Dropout", node, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestGemm(t *testing.T) {
	a := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := tf32(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	c := tf32(t, []float32{10, 10}, tensor.Shape{2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "alpha", Type: graph.AttrTypeFloat, F: 2},
		{Name: "beta", Type: graph.AttrTypeFloat, F: 1},
	}}

	out, err := run(t, "Gemm", node, a, b, c)
	require.NoError(t, err)
	assert.Equal(t, []float32{12, 14, 16, 18}, out[0].AsFloat32())
}

func TestGemmTransposeFlags(t *testing.T) {
	a := tf32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	b := tf32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "transA", Type: graph.AttrTypeInt, I: 1},
		{Name: "transB", Type: graph.AttrTypeInt, I: 1},
	}}

	// A^T is (2,3), B^T is (3,2) -> (2,2)
	out, err := run(t, "Gemm", node, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out[0].Shape())
	assert.Equal(t, []float32{22, 49, 28, 64}, out[0].AsFloat32())
}

func TestBatchNormInference(t *testing.T) {
	// Two channels, identity statistics: output = x*scale + bias.
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 1, 2})
	scale := tf32(t, []float32{2, 1}, tensor.Shape{2})
	bias := tf32(t, []float32{0, 10}, tensor.Shape{2})
	mean := tf32(t, []float32{0, 0}, tensor.Shape{2})
	variance := tf32(t, []float32{1, 1}, tensor.Shape{2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "epsilon", Type: graph.AttrTypeFloat, F: 0},
	}}

	out, err := run(t, "BatchNormalization", node, x, scale, bias, mean, variance)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2, 4, 13, 14}, out[0].AsFloat32(), 1e-5)
}

func TestBatchNormTrainingModeFails(t *testing.T) {
	x := tf32(t, []float32{1, 2}, tensor.Shape{1, 2})
	one := tf32(t, []float32{1, 1}, tensor.Shape{2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "training_mode", Type: graph.AttrTypeInt, I: 1},
	}}

	_, err := run(t, "BatchNormalization", node, x, one, one, one, one)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestConvBias(t *testing.T) {
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	w := tf32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	b := tf32(t, []float32{10}, tensor.Shape{1})

	out, err := run(t, "Conv", nil, x, w, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 12, 13, 14}, out[0].AsFloat32())
}

func TestConvAsymmetricPadsMatchExplicitPad(t *testing.T) {
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	w := tf32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	// pads [top, left, bottom, right] = [0, 1, 0, 1].
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "pads", Type: graph.AttrTypeInts, Ints: []int64{0, 1, 0, 1}},
	}}
	got, err := run(t, "Conv", node, x, w)
	require.NoError(t, err)

	// Equivalent: zero-pad W by (1, 1) explicitly, then convolve unpadded.
	backend := cpu.New()
	padded := backend.Pad(x, 3, 1, 1)
	want := backend.Conv2D(padded, w, 0, 1, 1, 1)

	assert.Equal(t, want.Shape(), got[0].Shape())
	assert.Equal(t, want.AsFloat32(), got[0].AsFloat32())
}

func TestConvKernelLargerThanInputFails(t *testing.T) {
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	w := tf32(t, make([]float32, 9), tensor.Shape{1, 1, 3, 3})

	_, err := run(t, "Conv", nil, x, w)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestConvZeroStrideFails(t *testing.T) {
	x := tf32(t, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	w := tf32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "strides", Type: graph.AttrTypeInts, Ints: []int64{0, 0}},
	}}

	_, err := run(t, "Conv", node, x, w)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestConvNonUniformStrideFails(t *testing.T) {
	x := tf32(t, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	w := tf32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "strides", Type: graph.AttrTypeInts, Ints: []int64{1, 2}},
	}}
	_, err := run(t, "Conv", node, x, w)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestConvAutoPadFails(t *testing.T) {
	x := tf32(t, make([]float32, 4), tensor.Shape{1, 1, 2, 2})
	w := tf32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "auto_pad", Type: graph.AttrTypeString, S: []byte("SAME_UPPER")},
	}}
	_, err := run(t, "Conv", node, x, w)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestMaxPoolStrideDefaultsToKernel(t *testing.T) {
	x := tf32(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		13, 14, 9, 10,
		15, 16, 11, 12,
	}, tensor.Shape{1, 1, 4, 4})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
	}}

	out, err := run(t, "MaxPool", node, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out[0].Shape())
	assert.Equal(t, []float32{4, 8, 16, 12}, out[0].AsFloat32())
}

func TestMaxPoolRejectsPadsAndDilations(t *testing.T) {
	x := tf32(t, make([]float32, 16), tensor.Shape{1, 1, 4, 4})

	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
		{Name: "pads", Type: graph.AttrTypeInts, Ints: []int64{1, 1, 1, 1}},
	}}
	_, err := run(t, "MaxPool", node, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))

	node = &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
		{Name: "dilations", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
	}}
	_, err = run(t, "MaxPool", node, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestMaxPoolKernelLargerThanInputFails(t *testing.T) {
	// A 3x3 window cannot slide over a 2x2 input.
	x := tf32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{3, 3}},
	}}

	_, err := run(t, "MaxPool", node, x)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestMaxPoolZeroStrideFails(t *testing.T) {
	x := tf32(t, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
		{Name: "strides", Type: graph.AttrTypeInts, Ints: []int64{0, 1}},
	}}

	_, err := run(t, "MaxPool", node, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}

func TestAveragePool(t *testing.T) {
	x := tf32(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	node := &graph.NodeProto{Name: "n0", Attributes: []graph.AttributeProto{
		{Name: "kernel_shape", Type: graph.AttrTypeInts, Ints: []int64{2, 2}},
	}}

	out, err := run(t, "AveragePool", node, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2.5}, out[0].AsFloat32(), 1e-6)
}

func TestEqualHandler(t *testing.T) {
	a := ti64(t, []int64{1, 2, 3}, tensor.Shape{3})
	b := ti64(t, []int64{1, 0, 3}, tensor.Shape{3})

	out, err := run(t, "Equal", nil, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Bool, out[0].DType())
	assert.Equal(t, []bool{true, false, true}, out[0].AsBool())
}

func TestUnaryRejectsIntForFloatOnly(t *testing.T) {
	x := ti64(t, []int64{1, 2}, tensor.Shape{2})
	_, err := run(t, "Sigmoid", nil, x)
	assert.True(t, errors.Is(err, graph.ErrUnsupportedConfig))
}
