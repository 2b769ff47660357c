package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerUtilityOps() {
	r.register(OpIdentity, handleIdentity)
	r.register(OpDropout, handleDropout)
	r.register(OpClip, handleClip)
	r.register(OpConstant, handleConstant)
	r.register(OpCast, handleCast)
}

func handleIdentity(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{inputs[0].Clone()}, nil
}

// handleDropout passes its input through unchanged: evaluation is
// inference-mode, where dropout is the identity. The optional mask output is
// not produced.
func handleDropout(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 3); err != nil {
		return nil, err
	}
	if len(node.Outputs) > 1 {
		return nil, errors.Wrap(graph.ErrUnsupportedConfig, "mask output requested")
	}
	return []*tensor.RawTensor{inputs[0].Clone()}, nil
}

// handleClip bounds the input below by the optional min input and above by
// the optional max input. Either bound may be absent; with neither the input
// passes through.
func handleClip(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 3); err != nil {
		return nil, err
	}
	out := inputs[0]
	if min := optionalInput(inputs, 1); min != nil {
		if err := checkBinaryOperands(out, min); err != nil {
			return nil, err
		}
		out = ctx.Backend.Maximum(out, min)
	}
	if max := optionalInput(inputs, 2); max != nil {
		if err := checkBinaryOperands(out, max); err != nil {
			return nil, err
		}
		out = ctx.Backend.Minimum(out, max)
	}
	if out == inputs[0] {
		out = inputs[0].Clone()
	}
	return []*tensor.RawTensor{out}, nil
}

// handleConstant materializes the tensor stored in the "value" attribute.
// The sparse and typed-scalar constant representations are not supported.
func handleConstant(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 0, 0); err != nil {
		return nil, err
	}
	value, err := requireTensorAttr(node, "value")
	if err != nil {
		return nil, err
	}
	out, err := graph.Materialize(value)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleCast(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	to, err := requireIntAttr(node, "to")
	if err != nil {
		return nil, err
	}
	dtype, err := graph.DType(int32(to))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{ctx.Backend.Cast(inputs[0], dtype)}, nil
}
