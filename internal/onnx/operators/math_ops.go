package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerMathOps() {
	r.register(OpAdd, binaryHandler((tensor.Backend).Add))
	r.register(OpSub, binaryHandler((tensor.Backend).Sub))
	r.register(OpMul, binaryHandler((tensor.Backend).Mul))
	r.register(OpDiv, binaryHandler((tensor.Backend).Div))
	r.register(OpEqual, binaryHandler((tensor.Backend).Equal))
	r.register(OpMatMul, handleMatMul)
	r.register(OpGemm, handleGemm)
}

// binaryHandler adapts an element-wise backend kernel into a handler,
// validating the broadcast contract the kernel itself would panic on.
func binaryHandler(op func(tensor.Backend, *tensor.RawTensor, *tensor.RawTensor) *tensor.RawTensor) Handler {
	return func(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		if err := expectInputs(node, inputs, 2, 2); err != nil {
			return nil, err
		}
		a, b := inputs[0], inputs[1]
		if err := checkBinaryOperands(a, b); err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{op(ctx.Backend, a, b)}, nil
	}
}

func checkBinaryOperands(a, b *tensor.RawTensor) error {
	if a.DType() != b.DType() {
		return errors.Wrapf(graph.ErrUnsupportedConfig, "operand dtypes differ: %s vs %s", a.DType(), b.DType())
	}
	if _, err := tensor.BroadcastShapes(a.Shape(), b.Shape()); err != nil {
		return errors.Wrap(graph.ErrUnsupportedConfig, err.Error())
	}
	return nil
}

func handleMatMul(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 2, 2); err != nil {
		return nil, err
	}
	if err := checkMatMulOperands(inputs[0], inputs[1]); err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{ctx.Backend.MatMul(inputs[0], inputs[1])}, nil
}

func checkMatMulOperands(a, b *tensor.RawTensor) error {
	if a.DType() != b.DType() {
		return errors.Wrapf(graph.ErrUnsupportedConfig, "operand dtypes differ: %s vs %s", a.DType(), b.DType())
	}
	if a.Rank() < 2 || b.Rank() < 2 {
		return errors.Wrapf(graph.ErrUnsupportedConfig,
			"matmul operands need rank >= 2, got %v x %v", a.Shape(), b.Shape())
	}
	if a.Shape()[a.Rank()-1] != b.Shape()[b.Rank()-2] {
		return errors.Wrapf(graph.ErrUnsupportedConfig,
			"matmul inner dimensions disagree: %v x %v", a.Shape(), b.Shape())
	}
	if _, err := tensor.BroadcastShapes(a.Shape()[:a.Rank()-2], b.Shape()[:b.Rank()-2]); err != nil {
		return errors.Wrap(graph.ErrUnsupportedConfig, err.Error())
	}
	return nil
}

// handleGemm computes alpha*A'*B' + beta*C with optional transposes, where
// A' and B' are the operands after the transA/transB flags are applied.
func handleGemm(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 2, 3); err != nil {
		return nil, err
	}
	alpha, err := optFloatAttr(node, "alpha", 1.0)
	if err != nil {
		return nil, err
	}
	beta, err := optFloatAttr(node, "beta", 1.0)
	if err != nil {
		return nil, err
	}
	transA, err := optIntAttr(node, "transA", 0)
	if err != nil {
		return nil, err
	}
	transB, err := optIntAttr(node, "transB", 0)
	if err != nil {
		return nil, err
	}

	a, b := inputs[0], inputs[1]
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
			"gemm operands must be matrices, got %v x %v", a.Shape(), b.Shape())
	}
	if transA != 0 {
		a = ctx.Backend.Transpose(a, 1, 0)
	}
	if transB != 0 {
		b = ctx.Backend.Transpose(b, 1, 0)
	}
	if err := checkMatMulOperands(a, b); err != nil {
		return nil, err
	}

	y := ctx.Backend.MatMul(a, b)
	if alpha != 1.0 {
		y = ctx.Backend.MulScalar(y, float64(alpha))
	}
	if c := optionalInput(inputs, 2); c != nil && beta != 0 {
		if err := checkBinaryOperands(y, c); err != nil {
			return nil, err
		}
		if beta != 1.0 {
			c = ctx.Backend.MulScalar(c, float64(beta))
		}
		y = ctx.Backend.Add(y, c)
	}
	return []*tensor.RawTensor{y}, nil
}
