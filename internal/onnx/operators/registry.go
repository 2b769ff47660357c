package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Context carries the per-evaluation state handlers need. Today that is the
// backend computing on behalf of every kernel call.
type Context struct {
	Backend tensor.Backend
}

// Handler executes one node. The inputs slice is positionally aligned with
// the node's input list; optional inputs declared with an empty name arrive
// as nil entries. Handlers return one tensor per node output.
type Handler func(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// Registry maps every operator kind to its handler. The table is fixed at
// construction: all supported kinds are registered, so a nil lookup means a
// programmer error, not a graph error.
type Registry struct {
	handlers [numOpKinds]Handler
}

// NewRegistry builds the full handler table.
func NewRegistry() *Registry {
	r := &Registry{}
	r.registerMathOps()
	r.registerActivations()
	r.registerShapeOps()
	r.registerConvOps()
	r.registerPoolOps()
	r.registerNormOps()
	r.registerUtilityOps()
	return r
}

func (r *Registry) register(kind OpKind, h Handler) {
	if r.handlers[kind] != nil {
		panic("operators: duplicate handler for " + kind.String())
	}
	r.handlers[kind] = h
}

// Execute runs the handler for kind on the given node, wrapping any failure
// with the node's name and operator type.
func (r *Registry) Execute(ctx *Context, kind OpKind, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	h := r.handlers[kind]
	if h == nil {
		return nil, errors.Wrapf(graph.ErrUnsupportedOperator, "%s (node %q)", kind, node.Name)
	}
	outputs, err := h(ctx, node, inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "node %q (%s)", node.Name, node.OpType)
	}
	return outputs, nil
}

// SupportedOps lists every operator type name in the registry, in kind order.
func SupportedOps() []string {
	names := make([]string, 0, int(numOpKinds))
	for kind := OpKind(0); kind < numOpKinds; kind++ {
		names = append(names, kind.String())
	}
	return names
}

// expectInputs checks the positional input count and that the required
// prefix is non-nil. Arity beyond required up to max may be nil (optional).
func expectInputs(node *graph.NodeProto, inputs []*tensor.RawTensor, required, max int) error {
	if len(inputs) < required || len(inputs) > max {
		return errors.Wrapf(graph.ErrUnsupportedConfig,
			"expected between %d and %d inputs, got %d", required, max, len(inputs))
	}
	for i := 0; i < required; i++ {
		if inputs[i] == nil {
			return errors.Wrapf(graph.ErrUnsupportedConfig, "input %d is required", i)
		}
	}
	return nil
}

// optionalInput returns inputs[i] when present, else nil.
func optionalInput(inputs []*tensor.RawTensor, i int) *tensor.RawTensor {
	if i < len(inputs) {
		return inputs[i]
	}
	return nil
}
