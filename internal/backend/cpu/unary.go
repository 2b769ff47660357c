package cpu

import (
	"fmt"
	"math"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// applyFloat evaluates f element-wise over a float tensor.
func applyFloat(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", name, x.DType()))
	}

	return result
}

// Exp computes element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("exp", x, math.Exp)
}

// Log computes element-wise natural logarithm.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("log", x, math.Log)
}

// Sqrt computes element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("sqrt", x, math.Sqrt)
}

// Cos computes element-wise cosine.
func (cpu *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("cos", x, math.Cos)
}

// Sin computes element-wise sine.
func (cpu *CPUBackend) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("sin", x, math.Sin)
}

// Erf computes the element-wise Gauss error function.
func (cpu *CPUBackend) Erf(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("erf", x, math.Erf)
}

// Tanh computes element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("tanh", x, math.Tanh)
}

// Sigmoid computes element-wise logistic sigmoid: 1 / (1 + exp(-x)).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("sigmoid", x, func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

// Gelu computes the exact (erf-based) GELU: 0.5 * x * (1 + erf(x / sqrt(2))).
func (cpu *CPUBackend) Gelu(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("gelu", x, func(v float64) float64 {
		return 0.5 * v * (1.0 + math.Erf(v/math.Sqrt2))
	})
}

// Relu computes element-wise max(0, x).
func (cpu *CPUBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return applyFloat("relu", x, func(v float64) float64 {
		return math.Max(0, v)
	})
}

// Abs computes the element-wise absolute value.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.DType() {
	case tensor.Float32, tensor.Float64:
		return applyFloat("abs", x, math.Abs)
	case tensor.Int32:
		return applyInt(x, func(v int32) int32 {
			if v < 0 {
				return -v
			}
			return v
		})
	case tensor.Int64:
		return applyInt(x, func(v int64) int64 {
			if v < 0 {
				return -v
			}
			return v
		})
	case tensor.Uint8:
		return x.Clone()
	default:
		panic(fmt.Sprintf("abs: unsupported dtype %s", x.DType()))
	}
}

// Neg computes element-wise negation.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.DType() {
	case tensor.Float32, tensor.Float64:
		return applyFloat("neg", x, func(v float64) float64 { return -v })
	case tensor.Int32:
		return applyInt(x, func(v int32) int32 { return -v })
	case tensor.Int64:
		return applyInt(x, func(v int64) int64 { return -v })
	default:
		panic(fmt.Sprintf("neg: unsupported dtype %s", x.DType()))
	}
}

// applyInt evaluates f element-wise over an integer tensor of type T.
func applyInt[T int32 | int64](x *tensor.RawTensor, f func(T) T) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType())
	if err != nil {
		panic(err)
	}
	src := tensor.View[T](x)
	dst := tensor.View[T](result)
	for i, v := range src {
		dst[i] = f(v)
	}
	return result
}

// AddScalar adds a scalar to every element of a float tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return applyFloat("add_scalar", x, func(v float64) float64 { return v + scalar })
}

// MulScalar multiplies every element of a float tensor by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return applyFloat("mul_scalar", x, func(v float64) float64 { return v * scalar })
}
