package onnx

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/onnx/operators"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// compiledNode pairs a graph node with its operator kind, resolved once at
// compile time.
type compiledNode struct {
	node *graph.NodeProto
	kind operators.OpKind
}

// Model is a compiled computation graph ready for repeated evaluation.
// Compilation materializes the initializers, resolves every node's operator
// and verifies node order up front, so Evaluate only executes. A Model is
// safe for concurrent Evaluate calls: each call gets its own environment and
// tensors are never mutated in place.
type Model struct {
	gr           *graph.GraphProto
	registry     *operators.Registry
	backend      tensor.Backend
	nodes        []compiledNode
	initializers map[string]*tensor.RawTensor
	inputs       []graph.ValueInfoProto // declared inputs minus initializers
	outputNames  []string
}

// Compile prepares a graph for evaluation on the given backend.
func Compile(gr *graph.GraphProto, backend tensor.Backend) (*Model, error) {
	if gr == nil {
		return nil, errors.New("nil graph")
	}

	initializers := make(map[string]*tensor.RawTensor, len(gr.Initializers))
	var initBytes int
	for i := range gr.Initializers {
		init := &gr.Initializers[i]
		t, err := graph.Materialize(init)
		if err != nil {
			return nil, errors.Wrapf(err, "initializer %q", init.Name)
		}
		initializers[init.Name] = t
		initBytes += t.ByteSize()
	}

	registry := operators.NewRegistry()
	nodes := make([]compiledNode, len(gr.Nodes))
	for i := range gr.Nodes {
		node := &gr.Nodes[i]
		kind, ok := operators.KindOf(node.OpType)
		if !ok {
			return nil, errors.Wrapf(graph.ErrUnsupportedOperator, "%s (node %q)", node.OpType, node.Name)
		}
		nodes[i] = compiledNode{node: node, kind: kind}
	}

	// Graph inputs that double as initializers are defaults, not required
	// caller inputs.
	inputs := make([]graph.ValueInfoProto, 0, len(gr.Inputs))
	for _, in := range gr.Inputs {
		if _, ok := initializers[in.Name]; !ok {
			inputs = append(inputs, in)
		}
	}

	outputNames := make([]string, len(gr.Outputs))
	for i, out := range gr.Outputs {
		outputNames[i] = out.Name
	}

	m := &Model{
		gr:           gr,
		registry:     registry,
		backend:      backend,
		nodes:        nodes,
		initializers: initializers,
		inputs:       inputs,
		outputNames:  outputNames,
	}
	if err := m.validateTopology(); err != nil {
		return nil, err
	}

	klog.V(1).Infof("compiled graph %q: %d nodes, %d initializers (%s), %d inputs, %d outputs, backend %s",
		gr.Name, len(nodes), len(initializers), humanize.Bytes(uint64(initBytes)),
		len(inputs), len(outputNames), backend.Name())
	return m, nil
}

// validateTopology checks that every node input is produced before use:
// by an initializer, a declared graph input, or an earlier node. Constant
// nodes aside, a violation means the node list is cyclic or out of order.
func (m *Model) validateTopology() error {
	available := make(map[string]struct{}, len(m.initializers)+len(m.gr.Inputs))
	for name := range m.initializers {
		available[name] = struct{}{}
	}
	for _, in := range m.gr.Inputs {
		available[in.Name] = struct{}{}
	}
	for i := range m.nodes {
		node := m.nodes[i].node
		for _, input := range node.Inputs {
			if input == "" {
				continue
			}
			if _, ok := available[input]; !ok {
				return errors.Wrapf(graph.ErrMissingValue,
					"node %q (%s) reads %q before it is produced: graph is cyclic or out of order",
					node.Name, node.OpType, input)
			}
		}
		for _, output := range node.Outputs {
			available[output] = struct{}{}
		}
	}
	for _, name := range m.outputNames {
		if _, ok := available[name]; !ok {
			return errors.Wrapf(graph.ErrMissingValue, "graph output %q is never produced", name)
		}
	}
	return nil
}

// InputNames lists the required caller inputs in declaration order.
func (m *Model) InputNames() []string {
	names := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		names[i] = in.Name
	}
	return names
}

// OutputNames lists the graph outputs in declaration order.
func (m *Model) OutputNames() []string {
	out := make([]string, len(m.outputNames))
	copy(out, m.outputNames)
	return out
}

// Backend returns the backend the model was compiled for.
func (m *Model) Backend() tensor.Backend {
	return m.backend
}

// Evaluate runs the graph on the given named inputs and returns the graph
// outputs by name. Inputs are validated against the graph's declared types:
// the dtype must match and every static declared dimension must agree
// (symbolic dimensions accept any size).
func (m *Model) Evaluate(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	env := graph.NewEnv(len(m.initializers) + len(inputs) + len(m.nodes))
	for name, t := range m.initializers {
		env.Insert(name, t.Clone())
	}
	for _, decl := range m.inputs {
		t, ok := inputs[decl.Name]
		if !ok {
			return nil, errors.Wrapf(graph.ErrMissingValue, "input %q", decl.Name)
		}
		if err := checkInputContract(decl, t); err != nil {
			return nil, err
		}
		env.Insert(decl.Name, t.Clone())
	}

	ctx := &operators.Context{Backend: m.backend}
	for i := range m.nodes {
		node := m.nodes[i].node
		args := make([]*tensor.RawTensor, len(node.Inputs))
		for j, name := range node.Inputs {
			if name == "" {
				continue // skipped optional input
			}
			t, err := env.Get(name)
			if err != nil {
				return nil, errors.Wrapf(err, "node %q (%s)", node.Name, node.OpType)
			}
			args[j] = t
		}

		outputs, err := m.registry.Execute(ctx, m.nodes[i].kind, node, args)
		if err != nil {
			return nil, err
		}
		if len(outputs) != len(node.Outputs) {
			return nil, errors.Errorf("node %q (%s): produced %d outputs, declared %d",
				node.Name, node.OpType, len(outputs), len(node.Outputs))
		}
		for j, name := range node.Outputs {
			if klog.V(2).Enabled() {
				klog.Infof("node %q (%s): %s = %s %v", node.Name, node.OpType,
					name, outputs[j].DType(), outputs[j].Shape())
			}
			env.Insert(name, outputs[j])
		}
	}

	return env.Drain(m.outputNames)
}

// Forward is a convenience for single-input single-output graphs.
func (m *Model) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(m.inputs) != 1 {
		return nil, errors.Errorf("graph declares %d inputs, Forward needs exactly 1", len(m.inputs))
	}
	if len(m.outputNames) != 1 {
		return nil, errors.Errorf("graph declares %d outputs, Forward needs exactly 1", len(m.outputNames))
	}
	outputs, err := m.Evaluate(map[string]*tensor.RawTensor{m.inputs[0].Name: input})
	if err != nil {
		return nil, err
	}
	return outputs[m.outputNames[0]], nil
}

// checkInputContract validates a caller tensor against the declared input
// type. Declarations without tensor type info accept anything.
func checkInputContract(decl graph.ValueInfoProto, t *tensor.RawTensor) error {
	if decl.Type == nil || decl.Type.TensorType == nil {
		return nil
	}
	tt := decl.Type.TensorType
	if tt.ElemType != graph.DataTypeUndefined {
		want, err := graph.DType(tt.ElemType)
		if err != nil {
			return errors.Wrapf(err, "input %q declaration", decl.Name)
		}
		if t.DType() != want {
			return errors.Wrapf(graph.ErrInputContract,
				"input %q: dtype %s, declared %s", decl.Name, t.DType(), want)
		}
	}
	if tt.Shape == nil {
		return nil
	}
	if len(tt.Shape.Dims) != t.Rank() {
		return errors.Wrapf(graph.ErrInputContract,
			"input %q: rank %d, declared %d", decl.Name, t.Rank(), len(tt.Shape.Dims))
	}
	for i, dim := range tt.Shape.Dims {
		if dim.IsParam() {
			continue // symbolic size, any extent accepted
		}
		if int64(t.Shape()[i]) != dim.DimValue {
			return errors.Wrapf(graph.ErrInputContract,
				"input %q: dimension %d is %d, declared %d", decl.Name, i, t.Shape()[i], dim.DimValue)
		}
	}
	return nil
}
