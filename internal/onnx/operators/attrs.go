package operators

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
)

// Typed attribute accessors. Each getter validates the attribute's declared
// type tag before touching the payload field, so a node carrying "axis" as a
// FLOAT fails loudly instead of silently reading a zero INT.

func findAttr(node *graph.NodeProto, name string) *graph.AttributeProto {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return &node.Attributes[i]
		}
	}
	return nil
}

func typedAttr(node *graph.NodeProto, name string, want int32) (*graph.AttributeProto, error) {
	attr := findAttr(node, name)
	if attr == nil {
		return nil, errors.Wrapf(graph.ErrMissingAttribute, "%q", name)
	}
	if attr.Type != want {
		return nil, errors.Wrapf(graph.ErrAttributeType, "%q declared as %s, requested %s",
			name, graph.AttrTypeName(attr.Type), graph.AttrTypeName(want))
	}
	return attr, nil
}

func requireIntAttr(node *graph.NodeProto, name string) (int64, error) {
	attr, err := typedAttr(node, name, graph.AttrTypeInt)
	if err != nil {
		return 0, err
	}
	return attr.I, nil
}

// optIntAttr returns def when the attribute is absent.
func optIntAttr(node *graph.NodeProto, name string, def int64) (int64, error) {
	if findAttr(node, name) == nil {
		return def, nil
	}
	return requireIntAttr(node, name)
}

func optFloatAttr(node *graph.NodeProto, name string, def float32) (float32, error) {
	attr := findAttr(node, name)
	if attr == nil {
		return def, nil
	}
	if attr.Type != graph.AttrTypeFloat {
		return 0, errors.Wrapf(graph.ErrAttributeType, "%q declared as %s, requested %s",
			name, graph.AttrTypeName(attr.Type), graph.AttrTypeName(graph.AttrTypeFloat))
	}
	return attr.F, nil
}

// optStringAttr additionally rejects byte payloads that are not valid UTF-8.
func optStringAttr(node *graph.NodeProto, name, def string) (string, error) {
	attr := findAttr(node, name)
	if attr == nil {
		return def, nil
	}
	if attr.Type != graph.AttrTypeString {
		return "", errors.Wrapf(graph.ErrAttributeType, "%q declared as %s, requested %s",
			name, graph.AttrTypeName(attr.Type), graph.AttrTypeName(graph.AttrTypeString))
	}
	if !utf8.Valid(attr.S) {
		return "", errors.Wrapf(graph.ErrAttributeType, "%q is not valid UTF-8", name)
	}
	return string(attr.S), nil
}

func requireIntsAttr(node *graph.NodeProto, name string) ([]int64, error) {
	attr, err := typedAttr(node, name, graph.AttrTypeInts)
	if err != nil {
		return nil, err
	}
	return attr.Ints, nil
}

// optIntsAttr returns (nil, nil) when the attribute is absent, letting the
// caller distinguish "unset" from an explicit empty list.
func optIntsAttr(node *graph.NodeProto, name string) ([]int64, error) {
	if findAttr(node, name) == nil {
		return nil, nil
	}
	return requireIntsAttr(node, name)
}

func requireTensorAttr(node *graph.NodeProto, name string) (*graph.TensorProto, error) {
	attr, err := typedAttr(node, name, graph.AttrTypeTensor)
	if err != nil {
		return nil, err
	}
	if attr.T == nil {
		return nil, errors.Wrapf(graph.ErrAttributeType, "%q has no tensor payload", name)
	}
	return attr.T, nil
}

// intsToAxes resolves a list of possibly-negative axes against rank.
func intsToAxes(axes []int64, rank int) ([]int, error) {
	out := make([]int, len(axes))
	for i, a := range axes {
		resolved, err := normalizeAxis64(a, rank)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func normalizeAxis64(axis int64, rank int) (int, error) {
	resolved := int(axis)
	if resolved < 0 {
		resolved += rank
	}
	if resolved < 0 || resolved >= rank {
		return 0, errors.Wrapf(graph.ErrUnsupportedConfig, "axis %d out of range for rank %d", axis, rank)
	}
	return resolved, nil
}
