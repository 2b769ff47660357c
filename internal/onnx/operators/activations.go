package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerActivations() {
	r.register(OpAbs, unaryHandler((tensor.Backend).Abs, false))
	r.register(OpNeg, handleNeg)
	r.register(OpCos, unaryHandler((tensor.Backend).Cos, true))
	r.register(OpSin, unaryHandler((tensor.Backend).Sin, true))
	r.register(OpErf, unaryHandler((tensor.Backend).Erf, true))
	r.register(OpTanh, unaryHandler((tensor.Backend).Tanh, true))
	r.register(OpSigmoid, unaryHandler((tensor.Backend).Sigmoid, true))
	r.register(OpGelu, unaryHandler((tensor.Backend).Gelu, true))
	r.register(OpRelu, unaryHandler((tensor.Backend).Relu, true))
	r.register(OpExp, unaryHandler((tensor.Backend).Exp, true))
	r.register(OpLog, unaryHandler((tensor.Backend).Log, true))
	r.register(OpSqrt, unaryHandler((tensor.Backend).Sqrt, true))
	r.register(OpSoftmax, softmaxHandler((tensor.Backend).Softmax))
	r.register(OpLogSoftmax, softmaxHandler((tensor.Backend).LogSoftmax))
}

func unaryHandler(op func(tensor.Backend, *tensor.RawTensor) *tensor.RawTensor, floatOnly bool) Handler {
	return func(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		if err := expectInputs(node, inputs, 1, 1); err != nil {
			return nil, err
		}
		x := inputs[0]
		if floatOnly && !x.DType().IsFloat() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a float type", x.DType())
		}
		if x.DType() == tensor.Bool {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a numeric type", x.DType())
		}
		return []*tensor.RawTensor{op(ctx.Backend, x)}, nil
	}
}

// handleNeg accepts float and signed integer tensors only.
func handleNeg(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	switch x.DType() {
	case tensor.Float32, tensor.Float64, tensor.Int32, tensor.Int64:
		return []*tensor.RawTensor{ctx.Backend.Neg(x)}, nil
	default:
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a signed type", x.DType())
	}
}

// softmaxHandler shares the axis-attribute handling of Softmax and
// LogSoftmax: the optional axis defaults to the last dimension and a
// negative axis counts back from the rank.
func softmaxHandler(op func(tensor.Backend, *tensor.RawTensor, int) *tensor.RawTensor) Handler {
	return func(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		if err := expectInputs(node, inputs, 1, 1); err != nil {
			return nil, err
		}
		x := inputs[0]
		if !x.DType().IsFloat() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a float type", x.DType())
		}
		rawAxis, err := optIntAttr(node, "axis", -1)
		if err != nil {
			return nil, err
		}
		axis, err := normalizeAxis64(rawAxis, x.Rank())
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{op(ctx.Backend, x, axis)}, nil
	}
}
