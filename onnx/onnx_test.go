package onnx_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-ml/onnxeval/backend/cpu"
	"github.com/calyx-ml/onnxeval/onnx"
	"github.com/calyx-ml/onnxeval/tensor"
)

func TestCompileAndEvaluate(t *testing.T) {
	gr := &onnx.GraphProto{
		Name: "mlp",
		Inputs: []onnx.ValueInfoProto{{
			Name: "x",
			Type: &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
				ElemType: 1, // float32
				Shape: &onnx.TensorShapeProto{Dims: []onnx.DimensionProto{
					{DimParam: "batch"}, {DimValue: 2},
				}},
			}},
		}},
		Outputs: []onnx.ValueInfoProto{{Name: "probs"}},
		Initializers: []onnx.TensorProto{
			{Name: "w", DataType: 1, Dims: []int64{2, 2}, FloatData: []float32{1, 0, 0, 1}},
			{Name: "b", DataType: 1, Dims: []int64{2}, FloatData: []float32{0.5, -0.5}},
		},
		Nodes: []onnx.NodeProto{
			{Name: "mm", OpType: "MatMul", Inputs: []string{"x", "w"}, Outputs: []string{"h"}},
			{Name: "add", OpType: "Add", Inputs: []string{"h", "b"}, Outputs: []string{"logits"}},
			{Name: "sm", OpType: "Softmax", Inputs: []string{"logits"}, Outputs: []string{"probs"}},
		},
	}

	model, err := onnx.Compile(gr, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, model.InputNames())

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	outputs, err := model.Evaluate(map[string]*tensor.RawTensor{"x": x})
	require.NoError(t, err)

	probs := outputs["probs"].AsFloat32()
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-6)
	assert.InDelta(t, 1.0, probs[2]+probs[3], 1e-6)
}

func TestCompileClassifiesUnsupportedOperator(t *testing.T) {
	gr := &onnx.GraphProto{
		Inputs:  []onnx.ValueInfoProto{{Name: "x"}},
		Outputs: []onnx.ValueInfoProto{{Name: "y"}},
		Nodes: []onnx.NodeProto{
			{Name: "n0", OpType: "TopK", Inputs: []string{"x"}, Outputs: []string{"y"}},
		},
	}

	_, err := onnx.Compile(gr, cpu.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, onnx.ErrUnsupportedOperator))
}

func TestListSupportedOps(t *testing.T) {
	ops := onnx.ListSupportedOps()
	assert.Contains(t, ops, "Conv")
	assert.Contains(t, ops, "MatMul")
	assert.Contains(t, ops, "BatchNormalization")
	assert.NotContains(t, ops, "TopK")
}

func TestMaterialize(t *testing.T) {
	out, err := onnx.Materialize(&onnx.TensorProto{
		DataType:  1,
		Dims:      []int64{2},
		FloatData: []float32{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, out.AsFloat32())
}
