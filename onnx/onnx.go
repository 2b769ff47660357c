// Package onnx evaluates parsed ONNX computation graphs eagerly on a tensor
// backend.
//
// The package starts where protobuf parsing ends: callers hand Compile an
// in-memory GraphProto (the descriptor types re-exported here) and get back
// a Model ready for repeated evaluation.
//
//	backend := cpu.New()
//	model, err := onnx.Compile(graph, backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outputs, err := model.Evaluate(map[string]*tensor.RawTensor{"input": x})
//
// Compilation materializes the graph's initializers, resolves every node's
// operator against the supported set and verifies the node list is a valid
// topological order, so evaluation itself only executes.
//
// Use [ListSupportedOps] for the complete operator list.
package onnx

import (
	internalonnx "github.com/calyx-ml/onnxeval/internal/onnx"
	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/onnx/operators"
	"github.com/calyx-ml/onnxeval/tensor"
)

// Graph descriptor types, mirroring the ONNX protobuf schema.
type (
	// ModelProto represents a parsed ONNX model.
	ModelProto = graph.ModelProto
	// GraphProto represents the computation graph.
	GraphProto = graph.GraphProto
	// NodeProto represents a single operation node.
	NodeProto = graph.NodeProto
	// TensorProto represents an embedded constant tensor.
	TensorProto = graph.TensorProto
	// ValueInfoProto describes a graph input or output value.
	ValueInfoProto = graph.ValueInfoProto
	// TypeProto describes a value's type.
	TypeProto = graph.TypeProto
	// TensorTypeProto describes a tensor's element type and shape.
	TensorTypeProto = graph.TensorTypeProto
	// TensorShapeProto describes tensor dimensions.
	TensorShapeProto = graph.TensorShapeProto
	// DimensionProto describes a static or symbolic dimension.
	DimensionProto = graph.DimensionProto
	// AttributeProto represents a node attribute.
	AttributeProto = graph.AttributeProto
	// OperatorSetID identifies an opset version.
	OperatorSetID = graph.OperatorSetID
	// StringStringEntry represents key-value metadata.
	StringStringEntry = graph.StringStringEntry
)

// Error kinds, usable with errors.Is to classify failures.
var (
	ErrMissingAttribute    = graph.ErrMissingAttribute
	ErrAttributeType       = graph.ErrAttributeType
	ErrMissingValue        = graph.ErrMissingValue
	ErrUnsupportedDataType = graph.ErrUnsupportedDataType
	ErrUnsupportedOperator = graph.ErrUnsupportedOperator
	ErrUnsupportedConfig   = graph.ErrUnsupportedConfig
	ErrInputContract       = graph.ErrInputContract
)

// Model is a compiled computation graph ready for repeated evaluation.
// Implementations are safe for concurrent Evaluate calls.
type Model interface {
	// Evaluate runs the graph on named inputs and returns the graph outputs
	// by name. Every name from InputNames must be provided; inputs are
	// validated against the graph's declared types.
	Evaluate(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error)

	// Forward runs inference for single-input single-output graphs.
	// Graphs with other arities must use Evaluate.
	Forward(input *tensor.RawTensor) (*tensor.RawTensor, error)

	// InputNames lists the required caller inputs in declaration order.
	// Graph inputs covered by initializers are not included.
	InputNames() []string

	// OutputNames lists the graph outputs in declaration order.
	OutputNames() []string
}

// Compile prepares a graph for evaluation on the given backend.
func Compile(gr *GraphProto, backend tensor.Backend) (Model, error) {
	m, err := internalonnx.Compile(gr, backend)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListSupportedOps returns the names of all supported operators.
func ListSupportedOps() []string {
	return operators.SupportedOps()
}

// Materialize converts an embedded constant tensor descriptor into a runtime
// tensor.
func Materialize(t *TensorProto) (*tensor.RawTensor, error) {
	return graph.Materialize(t)
}

// DataTypeOf maps the wire element-type enumeration to the runtime dtype.
func DataTypeOf(wire int32) (tensor.DataType, error) {
	return graph.DType(wire)
}
