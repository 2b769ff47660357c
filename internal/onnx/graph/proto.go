// Package graph defines the in-memory ONNX graph descriptors consumed by the
// evaluator, together with the value environment and the shared error kinds.
//
// The descriptors mirror the ONNX protobuf schema field-for-field but carry
// no wire-format logic: deserialization is the caller's concern, this package
// starts where parsing ends.
package graph

// ModelProto represents a parsed ONNX model.
type ModelProto struct {
	IRVersion       int64               // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Opset version(s)
	ProducerName    string              // Framework name (e.g., "pytorch", "tf")
	ProducerVersion string              // Framework version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph. Node order is trusted to be a
// valid topological order of the data-dependency DAG; Compile verifies this.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes, topologically sorted
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Graph-embedded constant tensors
	DocString    string           // Graph description
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name, used in diagnostics
	OpType     string           // Operation type (e.g., "Conv", "MatMul", "Relu")
	Inputs     []string         // Input value names ("" marks a skipped optional input)
	Outputs    []string         // Output value names
	Attributes []AttributeProto // Operation attributes
	Domain     string           // Custom domain (empty for default)
	DocString  string           // Node description
}

// TensorProto represents an embedded constant tensor. Exactly one of the
// data fields is populated; Materialize resolves which one wins.
type TensorProto struct {
	Name       string    // Tensor name
	DataType   int32     // Element data type (wire enumeration)
	Dims       []int64   // Tensor shape
	RawData    []byte    // Raw little-endian binary data (most common)
	FloatData  []float32 // Float32 data (legacy)
	DoubleData []float64 // Float64 data (legacy)
	Int32Data  []int32   // Int32 data (legacy)
	Int64Data  []int64   // Int64 data (legacy)
	DocString  string    // Tensor description
}

// ValueInfoProto describes an input/output value.
type ValueInfoProto struct {
	Name      string     // Value name
	Type      *TypeProto // Optional type information
	DocString string     // Description
}

// TypeProto describes a value's type.
type TypeProto struct {
	TensorType *TensorTypeProto // Tensor type (the only kind this core validates)
}

// TensorTypeProto describes a tensor's element type and shape.
type TensorTypeProto struct {
	ElemType int32             // Element data type (wire enumeration)
	Shape    *TensorShapeProto // Optional shape
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto // Dimensions
}

// DimensionProto describes a single dimension: either a static size or a
// symbolic parameter name (e.g., "batch_size").
type DimensionProto struct {
	DimValue int64  // Static dimension value
	DimParam string // Symbolic dimension name, set when the size is dynamic
}

// IsParam reports whether the dimension is symbolic.
func (d DimensionProto) IsParam() bool {
	return d.DimParam != ""
}

// AttributeProto represents a node attribute: a declared type tag plus a
// value stored under the matching field. Only the field matching Type is
// meaningful.
type AttributeProto struct {
	Name      string        // Attribute name
	Type      int32         // Declared attribute type (AttrType* constants)
	F         float32       // FLOAT value
	I         int64         // INT value
	S         []byte        // STRING value (UTF-8)
	T         *TensorProto  // TENSOR value
	Floats    []float32     // FLOATS array
	Ints      []int64       // INTS array
	Strings   [][]byte      // STRINGS array
	DocString string        // Description
}

// OperatorSetID identifies an opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX element types (TensorProto.DataType wire enumeration).
const (
	DataTypeUndefined  = 0
	DataTypeFloat      = 1  // float32
	DataTypeUint8      = 2  // uint8
	DataTypeInt8       = 3  // int8
	DataTypeUint16     = 4  // uint16
	DataTypeInt16      = 5  // int16
	DataTypeInt32      = 6  // int32
	DataTypeInt64      = 7  // int64
	DataTypeString     = 8  // string
	DataTypeBool       = 9  // bool
	DataTypeFloat16    = 10 // float16
	DataTypeDouble     = 11 // float64
	DataTypeUint32     = 12 // uint32
	DataTypeUint64     = 13 // uint64
	DataTypeComplex64  = 14 // complex64
	DataTypeComplex128 = 15 // complex128
	DataTypeBfloat16   = 16 // bfloat16
)

// ONNX attribute types (AttributeProto.Type wire enumeration).
const (
	AttrTypeUndefined = 0
	AttrTypeFloat     = 1 // FLOAT
	AttrTypeInt       = 2 // INT
	AttrTypeString    = 3 // STRING
	AttrTypeTensor    = 4 // TENSOR
	AttrTypeGraph     = 5 // GRAPH
	AttrTypeFloats    = 6 // FLOATS
	AttrTypeInts      = 7 // INTS
	AttrTypeStrings   = 8 // STRINGS
)

// AttrTypeName returns a readable name for an attribute type tag.
func AttrTypeName(t int32) string {
	switch t {
	case AttrTypeFloat:
		return "FLOAT"
	case AttrTypeInt:
		return "INT"
	case AttrTypeString:
		return "STRING"
	case AttrTypeTensor:
		return "TENSOR"
	case AttrTypeGraph:
		return "GRAPH"
	case AttrTypeFloats:
		return "FLOATS"
	case AttrTypeInts:
		return "INTS"
	case AttrTypeStrings:
		return "STRINGS"
	default:
		return "UNDEFINED"
	}
}
