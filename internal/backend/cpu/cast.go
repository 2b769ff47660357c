package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Cast converts the tensor to a different element type. Casting to the same
// type returns a shared-buffer clone.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result, err := tensor.NewRaw(x.Shape(), dtype)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		castFrom[float32](result, x)
	case tensor.Float64:
		castFrom[float64](result, x)
	case tensor.Int32:
		castFrom[int32](result, x)
	case tensor.Int64:
		castFrom[int64](result, x)
	case tensor.Uint8:
		castFrom[uint8](result, x)
	case tensor.Bool:
		castFromBool(result, x)
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}

	return result
}

func castFrom[S tensor.Numeric](dst, src *tensor.RawTensor) {
	sv := tensor.View[S](src)
	switch dst.DType() {
	case tensor.Float32:
		convert(tensor.View[float32](dst), sv)
	case tensor.Float64:
		convert(tensor.View[float64](dst), sv)
	case tensor.Int32:
		convert(tensor.View[int32](dst), sv)
	case tensor.Int64:
		convert(tensor.View[int64](dst), sv)
	case tensor.Uint8:
		convert(tensor.View[uint8](dst), sv)
	case tensor.Bool:
		dv := tensor.View[bool](dst)
		for i, v := range sv {
			dv[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dst.DType()))
	}
}

func castFromBool(dst, src *tensor.RawTensor) {
	sv := tensor.View[bool](src)
	switch dst.DType() {
	case tensor.Float32:
		boolsTo(tensor.View[float32](dst), sv)
	case tensor.Float64:
		boolsTo(tensor.View[float64](dst), sv)
	case tensor.Int32:
		boolsTo(tensor.View[int32](dst), sv)
	case tensor.Int64:
		boolsTo(tensor.View[int64](dst), sv)
	case tensor.Uint8:
		boolsTo(tensor.View[uint8](dst), sv)
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from bool", dst.DType()))
	}
}

func convert[D, S tensor.Numeric](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

func boolsTo[D tensor.Numeric](dst []D, src []bool) {
	for i, v := range src {
		if v {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}
