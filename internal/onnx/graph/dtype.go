package graph

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// DType maps the wire element-type enumeration to the runtime dtype.
// FLOAT16 maps to Float32: half-precision payloads are widened during
// materialization since the backends compute in single precision.
func DType(wire int32) (tensor.DataType, error) {
	switch wire {
	case DataTypeFloat:
		return tensor.Float32, nil
	case DataTypeFloat16:
		return tensor.Float32, nil
	case DataTypeDouble:
		return tensor.Float64, nil
	case DataTypeInt32:
		return tensor.Int32, nil
	case DataTypeInt64:
		return tensor.Int64, nil
	case DataTypeUint8:
		return tensor.Uint8, nil
	case DataTypeBool:
		return tensor.Bool, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedDataType, "element type %d", wire)
	}
}
