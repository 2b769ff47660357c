package operators

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerShapeOps() {
	r.register(OpReshape, handleReshape)
	r.register(OpTranspose, handleTranspose)
	r.register(OpSqueeze, handleSqueeze)
	r.register(OpUnsqueeze, handleUnsqueeze)
	r.register(OpFlatten, handleFlatten)
	r.register(OpConcat, handleConcat)
	r.register(OpShape, handleShape)
}

// handleReshape resolves the target shape from the second input: a 0 entry
// copies the input dimension at that position and a single -1 entry is
// inferred from the remaining element count.
func handleReshape(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 2, 2); err != nil {
		return nil, err
	}
	x, spec := inputs[0], inputs[1]
	if spec.DType() != tensor.Int64 || spec.Rank() != 1 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"shape input must be a 1-D int64 tensor, got %s %v", spec.DType(), spec.Shape())
	}

	// Resolve 0 entries to the input dimensions first, so the -1 inference
	// divides by every known output dimension, copied ones included.
	target := spec.AsInt64()
	shape := make(tensor.Shape, len(target))
	known := 1
	infer := -1
	for i, v := range target {
		switch {
		case v == -1:
			if infer >= 0 {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
					"shape entries %d and %d are both -1", infer, i)
			}
			infer = i
		case v == 0:
			if i >= x.Rank() {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
					"shape entry 0 at position %d exceeds input rank %d", i, x.Rank())
			}
			shape[i] = x.Shape()[i]
			known *= shape[i]
		case v < 0:
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "shape entry %d at position %d", v, i)
		default:
			shape[i] = int(v)
			known *= int(v)
		}
	}
	if infer >= 0 {
		if x.NumElements()%known != 0 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"cannot infer dimension %d: %d elements do not divide by %d", infer, x.NumElements(), known)
		}
		shape[infer] = x.NumElements() / known
	}
	if shape.NumElements() != x.NumElements() {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"target shape %v does not hold %d elements", shape, x.NumElements())
	}
	return []*tensor.RawTensor{ctx.Backend.Reshape(x, shape)}, nil
}

func handleTranspose(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	perm, err := optIntsAttr(node, "perm")
	if err != nil {
		return nil, err
	}
	if perm == nil {
		return []*tensor.RawTensor{ctx.Backend.Transpose(x)}, nil
	}
	if len(perm) != x.Rank() {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"perm has %d entries for rank %d", len(perm), x.Rank())
	}
	axes, err := intsToAxes(perm, x.Rank())
	if err != nil {
		return nil, err
	}
	seen := make([]bool, x.Rank())
	for _, a := range axes {
		if seen[a] {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "perm repeats axis %d", a)
		}
		seen[a] = true
	}
	return []*tensor.RawTensor{ctx.Backend.Transpose(x, axes...)}, nil
}

// handleSqueeze takes the axis list from the second input when present
// (falling back to the "axes" attribute for older opsets). Without an axis
// list every size-1 dimension except the leading one is removed.
func handleSqueeze(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 2); err != nil {
		return nil, err
	}
	x := inputs[0]

	var axes []int
	switch {
	case optionalInput(inputs, 1) != nil:
		spec := inputs[1]
		if spec.DType() != tensor.Int64 || spec.Rank() > 1 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"axes input must be a 1-D int64 tensor, got %s %v", spec.DType(), spec.Shape())
		}
		resolved, err := intsToAxes(spec.AsInt64(), x.Rank())
		if err != nil {
			return nil, err
		}
		axes = resolved
	case findAttr(node, "axes") != nil:
		raw, err := requireIntsAttr(node, "axes")
		if err != nil {
			return nil, err
		}
		resolved, err := intsToAxes(raw, x.Rank())
		if err != nil {
			return nil, err
		}
		axes = resolved
	default:
		for i, dim := range x.Shape() {
			if dim == 1 && i > 0 {
				axes = append(axes, i)
			}
		}
	}

	// Removing from the highest axis down keeps lower indices stable.
	sort.Sort(sort.Reverse(sort.IntSlice(axes)))
	out := x
	for _, axis := range axes {
		if out.Shape()[axis] != 1 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"axis %d has size %d, cannot squeeze", axis, out.Shape()[axis])
		}
		out = ctx.Backend.Squeeze(out, axis)
	}
	if out == x {
		out = x.Clone()
	}
	return []*tensor.RawTensor{out}, nil
}

func handleUnsqueeze(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 2); err != nil {
		return nil, err
	}
	x := inputs[0]

	var raw []int64
	if spec := optionalInput(inputs, 1); spec != nil {
		if spec.DType() != tensor.Int64 || spec.Rank() > 1 {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"axes input must be a 1-D int64 tensor, got %s %v", spec.DType(), spec.Shape())
		}
		raw = spec.AsInt64()
	} else {
		var err error
		raw, err = requireIntsAttr(node, "axes")
		if err != nil {
			return nil, err
		}
	}

	// Axes index into the output shape, so they resolve against rank+len.
	outRank := x.Rank() + len(raw)
	axes, err := intsToAxes(raw, outRank)
	if err != nil {
		return nil, err
	}
	sort.Ints(axes)
	out := x
	for _, axis := range axes {
		out = ctx.Backend.Unsqueeze(out, axis)
	}
	if out == x {
		out = x.Clone()
	}
	return []*tensor.RawTensor{out}, nil
}

// handleFlatten collapses the input into a matrix split at axis: dimensions
// before it become the rows, the rest become the columns.
func handleFlatten(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	rawAxis, err := optIntAttr(node, "axis", 1)
	if err != nil {
		return nil, err
	}
	axis := int(rawAxis)
	if axis < 0 {
		axis += x.Rank()
	}
	if axis < 0 || axis > x.Rank() {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "axis %d out of range for rank %d", rawAxis, x.Rank())
	}
	rows := 1
	for _, dim := range x.Shape()[:axis] {
		rows *= dim
	}
	cols := x.NumElements() / rows
	return []*tensor.RawTensor{ctx.Backend.Reshape(x, tensor.Shape{rows, cols})}, nil
}

func handleConcat(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(graph.ErrUnsupportedConfig, "empty concat")
	}
	for i, in := range inputs {
		if in == nil {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input %d is required", i)
		}
	}
	rawAxis, err := requireIntAttr(node, "axis")
	if err != nil {
		return nil, err
	}
	first := inputs[0]
	axis, err := normalizeAxis64(rawAxis, first.Rank())
	if err != nil {
		return nil, err
	}
	for _, in := range inputs[1:] {
		if in.DType() != first.DType() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"operand dtypes differ: %s vs %s", first.DType(), in.DType())
		}
		if in.Rank() != first.Rank() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"operand ranks differ: %v vs %v", first.Shape(), in.Shape())
		}
		for d := 0; d < first.Rank(); d++ {
			if d != axis && in.Shape()[d] != first.Shape()[d] {
				return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
					"dimension %d differs: %v vs %v", d, first.Shape(), in.Shape())
			}
		}
	}
	return []*tensor.RawTensor{ctx.Backend.Concat(inputs, axis)}, nil
}

// handleShape emits the input's dimensions as a 1-D int64 tensor.
func handleShape(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	dims := make([]int64, x.Rank())
	for i, dim := range x.Shape() {
		dims[i] = int64(dim)
	}
	out, err := tensor.FromSlice(dims, tensor.Shape{x.Rank()})
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}
