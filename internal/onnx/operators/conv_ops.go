package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerConvOps() {
	r.register(OpConv, handleConv)
}

// handleConv dispatches on the weight rank: a rank-3 weight selects the 1-D
// convolution over [N, C, L], a rank-4 weight the 2-D one over [N, C, H, W].
// Asymmetric pads fall back to an explicit zero-pad of the input followed by
// an unpadded convolution. Stride and dilation must be uniform across the
// spatial axes.
func handleConv(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 2, 3); err != nil {
		return nil, err
	}
	x, weight := inputs[0], inputs[1]
	if !x.DType().IsFloat() || weight.DType() != x.DType() {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"input dtype %s, weight dtype %s, want matching float types", x.DType(), weight.DType())
	}

	autoPad, err := optStringAttr(node, "auto_pad", "NOTSET")
	if err != nil {
		return nil, err
	}
	if autoPad != "NOTSET" {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "auto_pad %q", autoPad)
	}
	dilations, err := optIntsAttr(node, "dilations")
	if err != nil {
		return nil, err
	}
	pads, err := optIntsAttr(node, "pads")
	if err != nil {
		return nil, err
	}
	strides, err := optIntsAttr(node, "strides")
	if err != nil {
		return nil, err
	}
	group, err := optIntAttr(node, "group", 1)
	if err != nil {
		return nil, err
	}
	if group < 1 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "group %d", group)
	}

	var out *tensor.RawTensor
	switch weight.Rank() {
	case 3:
		out, err = conv1d(ctx, x, weight, pads, strides, dilations, int(group))
	case 4:
		out, err = conv2d(ctx, x, weight, pads, strides, dilations, int(group))
	default:
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "weight rank %d, want 3 or 4", weight.Rank())
	}
	if err != nil {
		return nil, err
	}

	if bias := optionalInput(inputs, 2); bias != nil {
		// Broadcast the per-channel bias across batch and spatial axes.
		shape := make(tensor.Shape, out.Rank())
		for i := range shape {
			shape[i] = 1
		}
		shape[1] = bias.NumElements()
		out = ctx.Backend.Add(out, ctx.Backend.Reshape(bias, shape))
	}
	return []*tensor.RawTensor{out}, nil
}

func conv1d(ctx *Context, x, weight *tensor.RawTensor, pads, strides, dilations []int64, groups int) (*tensor.RawTensor, error) {
	if x.Rank() != 3 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input rank %d, want 3 for a rank-3 weight", x.Rank())
	}
	pad := 0
	switch len(pads) {
	case 0:
	case 1:
		pad = int(pads[0])
	case 2:
		if pads[0] == pads[1] {
			pad = int(pads[0])
		} else {
			x = ctx.Backend.Pad(x, 2, int(pads[0]), int(pads[1]))
		}
	default:
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "pads %v for a 1-d conv", pads)
	}
	stride, err := uniformValue("strides", strides, 1, 1)
	if err != nil {
		return nil, err
	}
	dilation, err := uniformValue("dilations", dilations, 1, 1)
	if err != nil {
		return nil, err
	}
	l, k := x.Shape()[2], weight.Shape()[2]
	if lOut := (l+2*pad-dilation*(k-1)-1)/stride + 1; lOut < 1 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"kernel %d with stride %d and dilation %d does not fit input length %d", k, stride, dilation, l)
	}
	return ctx.Backend.Conv1D(x, weight, pad, stride, dilation, groups), nil
}

func conv2d(ctx *Context, x, weight *tensor.RawTensor, pads, strides, dilations []int64, groups int) (*tensor.RawTensor, error) {
	if x.Rank() != 4 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input rank %d, want 4 for a rank-4 weight", x.Rank())
	}
	pad := 0
	switch len(pads) {
	case 0:
	case 1:
		pad = int(pads[0])
	case 4:
		if pads[0] == pads[1] && pads[0] == pads[2] && pads[0] == pads[3] {
			pad = int(pads[0])
		} else {
			// pads are [top, left, bottom, right].
			x = ctx.Backend.Pad(x, 2, int(pads[0]), int(pads[2]))
			x = ctx.Backend.Pad(x, 3, int(pads[1]), int(pads[3]))
		}
	default:
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "pads %v for a 2-d conv", pads)
	}
	stride, err := uniformValue("strides", strides, 2, 1)
	if err != nil {
		return nil, err
	}
	dilation, err := uniformValue("dilations", dilations, 2, 1)
	if err != nil {
		return nil, err
	}
	h, w := x.Shape()[2], x.Shape()[3]
	kh, kw := weight.Shape()[2], weight.Shape()[3]
	hOut := (h+2*pad-dilation*(kh-1)-1)/stride + 1
	wOut := (w+2*pad-dilation*(kw-1)-1)/stride + 1
	if hOut < 1 || wOut < 1 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"kernel %dx%d with stride %d and dilation %d does not fit input %dx%d", kh, kw, stride, dilation, h, w)
	}
	return ctx.Backend.Conv2D(x, weight, pad, stride, dilation, groups), nil
}

// uniformValue collapses a per-axis attribute list into a single positive
// value: the list may be absent (the default applies), have one entry, or
// have spatialDims identical entries.
func uniformValue(name string, values []int64, spatialDims int, def int) (int, error) {
	switch len(values) {
	case 0:
		return def, nil
	case 1:
	case spatialDims:
		for _, v := range values[1:] {
			if v != values[0] {
				return 0, errors.Wrapf(graph.ErrUnsupportedConfig, "non-uniform %s %v", name, values)
			}
		}
	default:
		return 0, errors.Wrapf(graph.ErrUnsupportedConfig, "%s %v for %d spatial dims", name, values, spatialDims)
	}
	if values[0] < 1 {
		return 0, errors.Wrapf(graph.ErrUnsupportedConfig, "%s %v", name, values)
	}
	return int(values[0]), nil
}
