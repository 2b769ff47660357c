package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerPoolOps() {
	r.register(OpMaxPool, poolHandler((tensor.Backend).MaxPool2D))
	r.register(OpAveragePool, poolHandler((tensor.Backend).AvgPool2D))
}

// poolHandler covers the shared 2-D pooling contract: a [N, C, H, W] input,
// a required two-entry kernel_shape, strides defaulting to the kernel shape,
// and no support for dilation, padding or auto_pad.
func poolHandler(op func(tensor.Backend, *tensor.RawTensor, [2]int, [2]int) *tensor.RawTensor) Handler {
	return func(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		if err := expectInputs(node, inputs, 1, 1); err != nil {
			return nil, err
		}
		x := inputs[0]
		if x.Rank() != 4 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input rank %d, want 4", x.Rank())
		}
		if !x.DType().IsFloat() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a float type", x.DType())
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
		for _, d := range dilations {
			if d != 1 {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "dilations %v", dilations)
			}
		}
		pads, err := optIntsAttr(node, "pads")
		if err != nil {
			return nil, err
		}
		for _, p := range pads {
			if p != 0 {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "pads %v", pads)
			}
		}

		kernelShape, err := requireIntsAttr(node, "kernel_shape")
		if err != nil {
			return nil, err
		}
		if len(kernelShape) != 2 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "kernel_shape %v, want 2 entries", kernelShape)
		}
		kernel := [2]int{int(kernelShape[0]), int(kernelShape[1])}
		if kernel[0] < 1 || kernel[1] < 1 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "kernel_shape %v", kernelShape)
		}
		if h, w := x.Shape()[2], x.Shape()[3]; kernel[0] > h || kernel[1] > w {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"kernel %v does not fit input %dx%d", kernelShape, h, w)
		}

		strides, err := optIntsAttr(node, "strides")
		if err != nil {
			return nil, err
		}
		stride := kernel
		if strides != nil {
			if len(strides) != 2 {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "strides %v, want 2 entries", strides)
			}
			stride = [2]int{int(strides[0]), int(strides[1])}
			if stride[0] < 1 || stride[1] < 1 {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "strides %v", strides)
			}
		}

		return []*tensor.RawTensor{op(ctx.Backend, x, kernel, stride)}, nil
	}
}
