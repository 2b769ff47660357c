package operators

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/onnx/graph"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

func (r *Registry) registerNormOps() {
	r.register(OpBatchNormalization, handleBatchNorm)
}

// handleBatchNorm applies inference-mode batch normalization:
// (x - mean) / sqrt(var + epsilon) * scale + bias, with the per-channel
// statistics reshaped to broadcast over the channel axis.
func handleBatchNorm(ctx *Context, node *graph.NodeProto, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := expectInputs(node, inputs, 5, 5); err != nil {
		return nil, err
	}
	trainingMode, err := optIntAttr(node, "training_mode", 0)
	if err != nil {
		return nil, err
	}
	if trainingMode != 0 {
		return nil, errors.Wrap(graph.ErrUnsupportedConfig, "training mode")
	}
	epsilon, err := optFloatAttr(node, "epsilon", 1e-5)
	if err != nil {
		return nil, err
	}

	x, scale, bias, mean, variance := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
	if x.Rank() < 2 {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input rank %d, want >= 2", x.Rank())
	}
	if !x.DType().IsFloat() {
		return nil, errors.Wrapf(graph.ErrUnsupportedConfig, "input dtype %s, want a float type", x.DType())
	}

	// Per-channel vectors broadcast as [1, C, 1, ...].
	channels := x.Shape()[1]
	stat := make(tensor.Shape, x.Rank())
	for i := range stat {
		stat[i] = 1
	}
	stat[1] = channels
	for name, t := range map[string]*tensor.RawTensor{
		"scale": scale, "bias": bias, "mean": mean, "variance": variance,
	} {
		if t.DType() != x.DType() {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"%s dtype %s differs from input dtype %s", name, t.DType(), x.DType())
		}
		if t.NumElements() != channels {
			return nil, errors.Wrapf(graph.ErrUnsupportedConfig,
				"%s has %d elements for %d channels", name, t.NumElements(), channels)
		}
	}

	b := ctx.Backend
	denom := b.Sqrt(b.AddScalar(b.Reshape(variance, stat), float64(epsilon)))
	norm := b.Div(b.Sub(x, b.Reshape(mean, stat)), denom)
	out := b.Add(b.Mul(norm, b.Reshape(scale, stat)), b.Reshape(bias, stat))
	return []*tensor.RawTensor{out}, nil
}
