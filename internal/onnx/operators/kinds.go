package operators

// OpKind is the closed enumeration of supported operator types. Node op-type
// strings are resolved to kinds once, at compile time, so an unknown
// operator surfaces before any node runs instead of mid-evaluation.
type OpKind int

// Supported operators.
const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpEqual
	OpMatMul
	OpGemm
	OpAbs
	OpNeg
	OpCos
	OpSin
	OpErf
	OpTanh
	OpSigmoid
	OpGelu
	OpRelu
	OpExp
	OpLog
	OpSqrt
	OpSoftmax
	OpLogSoftmax
	OpReshape
	OpTranspose
	OpSqueeze
	OpUnsqueeze
	OpFlatten
	OpConcat
	OpShape
	OpConv
	OpMaxPool
	OpAveragePool
	OpBatchNormalization
	OpDropout
	OpIdentity
	OpClip
	OpConstant
	OpCast

	numOpKinds // keep last
)

var kindNames = map[OpKind]string{
	OpAdd:                "Add",
	OpSub:                "Sub",
	OpMul:                "Mul",
	OpDiv:                "Div",
	OpEqual:              "Equal",
	OpMatMul:             "MatMul",
	OpGemm:               "Gemm",
	OpAbs:                "Abs",
	OpNeg:                "Neg",
	OpCos:                "Cos",
	OpSin:                "Sin",
	OpErf:                "Erf",
	OpTanh:               "Tanh",
	OpSigmoid:            "Sigmoid",
	OpGelu:               "Gelu",
	OpRelu:               "Relu",
	OpExp:                "Exp",
	OpLog:                "Log",
	OpSqrt:               "Sqrt",
	OpSoftmax:            "Softmax",
	OpLogSoftmax:         "LogSoftmax",
	OpReshape:            "Reshape",
	OpTranspose:          "Transpose",
	OpSqueeze:            "Squeeze",
	OpUnsqueeze:          "Unsqueeze",
	OpFlatten:            "Flatten",
	OpConcat:             "Concat",
	OpShape:              "Shape",
	OpConv:               "Conv",
	OpMaxPool:            "MaxPool",
	OpAveragePool:        "AveragePool",
	OpBatchNormalization: "BatchNormalization",
	OpDropout:            "Dropout",
	OpIdentity:           "Identity",
	OpClip:               "Clip",
	OpConstant:           "Constant",
	OpCast:               "Cast",
}

var kindByName = func() map[string]OpKind {
	m := make(map[string]OpKind, len(kindNames))
	for kind, name := range kindNames {
		m[name] = kind
	}
	return m
}()

// KindOf resolves an op-type string to its kind.
func KindOf(opType string) (OpKind, bool) {
	kind, ok := kindByName[opType]
	return kind, ok
}

// String returns the ONNX op-type name for the kind.
func (k OpKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}
