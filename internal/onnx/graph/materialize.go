package graph

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Materialize converts an embedded constant tensor descriptor into a runtime
// tensor.
//
// A conformant producer may store elements either in one of the typed arrays
// or in the raw byte buffer, so the source is resolved in a fixed priority
// order: the typed array matching the resolved dtype wins when non-empty,
// otherwise the raw buffer is reinterpreted per the dtype and dims.
func Materialize(t *TensorProto) (*tensor.RawTensor, error) {
	dtype, err := DType(t.DataType)
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", t.Name)
	}

	shape := make(tensor.Shape, len(t.Dims))
	for i, dim := range t.Dims {
		shape[i] = int(dim)
	}

	switch {
	case dtype == tensor.Float32 && len(t.FloatData) > 0:
		return tensor.FromSlice(t.FloatData, shape)
	case dtype == tensor.Float64 && len(t.DoubleData) > 0:
		return tensor.FromSlice(t.DoubleData, shape)
	case dtype == tensor.Int64 && len(t.Int64Data) > 0:
		return tensor.FromSlice(t.Int64Data, shape)
	case dtype == tensor.Int32 && len(t.Int32Data) > 0:
		return tensor.FromSlice(t.Int32Data, shape)
	case t.DataType == DataTypeFloat16:
		return fromFloat16Raw(t.RawData, shape)
	default:
		return tensor.FromRawBytes(t.RawData, shape, dtype)
	}
}

// fromFloat16Raw widens a half-precision raw buffer into a float32 tensor.
func fromFloat16Raw(raw []byte, shape tensor.Shape) (*tensor.RawTensor, error) {
	n := shape.NumElements()
	if len(raw) != n*2 {
		return nil, errors.Errorf("float16 raw buffer length %d does not match shape %v (%d bytes)",
			len(raw), shape, n*2)
	}
	data := make([]float32, n)
	for i := range data {
		bits := binary.LittleEndian.Uint16(raw[i*2:])
		data[i] = float16.Frombits(bits).Float32()
	}
	return tensor.FromSlice(data, shape)
}
