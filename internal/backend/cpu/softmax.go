package cpu

import (
	"fmt"
	"math"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Softmax computes softmax along the given (non-negative) axis:
// softmax(x_i) = exp(x_i) / sum_j exp(x_j).
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, axis int) *tensor.RawTensor {
	return softmaxOp("softmax", x, axis, false)
}

// LogSoftmax computes log(softmax(x)) along the given axis in a numerically
// stable form: x_i - max - log(sum_j exp(x_j - max)).
func (cpu *CPUBackend) LogSoftmax(x *tensor.RawTensor, axis int) *tensor.RawTensor {
	return softmaxOp("log_softmax", x, axis, true)
}

func softmaxOp(name string, x *tensor.RawTensor, axis int, logForm bool) *tensor.RawTensor {
	if axis < 0 || axis >= x.Rank() {
		panic(fmt.Sprintf("%s: axis %d out of range for rank %d", name, axis, x.Rank()))
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		softmaxRows[float32](result, x, axis, logForm)
	case tensor.Float64:
		softmaxRows[float64](result, x, axis, logForm)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", name, x.DType()))
	}

	return result
}

// softmaxRows normalizes every 1-D lane along the softmax axis. Each lane is
// shifted by its max before exponentiation for numerical stability.
func softmaxRows[T tensor.Float](result, x *tensor.RawTensor, axis int, logForm bool) {
	src := tensor.View[T](x)
	dst := tensor.View[T](result)
	shape := x.Shape()
	strides := shape.ComputeStrides()

	axisSize := shape[axis]
	axisStride := strides[axis]

	numLanes := x.NumElements() / axisSize
	for lane := 0; lane < numLanes; lane++ {
		// Base offset of this lane: enumerate all coordinates with the
		// softmax axis held at zero.
		base := 0
		rem := lane
		for i := len(shape) - 1; i >= 0; i-- {
			if i == axis {
				continue
			}
			coord := rem % shape[i]
			rem /= shape[i]
			base += coord * strides[i]
		}

		maxVal := math.Inf(-1)
		for i := 0; i < axisSize; i++ {
			if v := float64(src[base+i*axisStride]); v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for i := 0; i < axisSize; i++ {
			sum += math.Exp(float64(src[base+i*axisStride]) - maxVal)
		}

		if logForm {
			logSum := math.Log(sum)
			for i := 0; i < axisSize; i++ {
				idx := base + i*axisStride
				dst[idx] = T(float64(src[idx]) - maxVal - logSum)
			}
		} else {
			for i := 0; i < axisSize; i++ {
				idx := base + i*axisStride
				dst[idx] = T(math.Exp(float64(src[idx])-maxVal) / sum)
			}
		}
	}
}
