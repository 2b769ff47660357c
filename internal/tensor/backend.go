package tensor

// Backend supplies the numeric kernels the graph evaluator dispatches to.
// The evaluator validates operator contracts before calling in; kernels treat
// violations that slip through (dtype/shape misuse) as programmer errors and
// panic, following the reference CPU implementation.
//
// Kernels never mutate their inputs: every operation returns a fresh tensor,
// so aliasing one tensor under several value names is safe.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor
	Maximum(a, b *RawTensor) *RawTensor
	Minimum(a, b *RawTensor) *RawTensor

	// Equal compares element-wise with broadcasting, producing a Bool tensor.
	Equal(a, b *RawTensor) *RawTensor

	// MatMul multiplies the trailing two dimensions with NumPy-style
	// broadcasting over the leading batch dimensions.
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutions take [N, C, L] / [N, C, H, W] inputs with symmetric
	// zero padding and uniform stride/dilation per spatial axis.
	Conv1D(input, kernel *RawTensor, pad, stride, dilation, groups int) *RawTensor
	Conv2D(input, kernel *RawTensor, pad, stride, dilation, groups int) *RawTensor

	// Pooling over [N, C, H, W] inputs, no padding.
	MaxPool2D(input *RawTensor, kernel, stride [2]int) *RawTensor
	AvgPool2D(input *RawTensor, kernel, stride [2]int) *RawTensor

	// Pad inserts zero elements before and after one axis.
	Pad(x *RawTensor, axis, before, after int) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor
	Squeeze(x *RawTensor, axis int) *RawTensor
	Unsqueeze(x *RawTensor, axis int) *RawTensor
	Concat(tensors []*RawTensor, axis int) *RawTensor

	// Scalar operations (float tensors only).
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Activations over a resolved, non-negative axis.
	Softmax(x *RawTensor, axis int) *RawTensor
	LogSoftmax(x *RawTensor, axis int) *RawTensor

	// Element-wise unary operations (float tensors unless noted).
	Abs(x *RawTensor) *RawTensor // also integer dtypes
	Neg(x *RawTensor) *RawTensor // also integer dtypes
	Cos(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor
	Erf(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Gelu(x *RawTensor) *RawTensor
	Relu(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Name identifies the backend in diagnostics.
	Name() string
}
