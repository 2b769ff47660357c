package cpu

import (
	"fmt"
	"math"

	"github.com/calyx-ml/onnxeval/internal/parallel"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// MaxPool2D performs 2D max pooling over a [N, C, H, W] input without
// padding. Kernel and stride are given per spatial axis as [height, width].
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	result := poolOutput("maxpool2d", input, kernel, stride)

	switch input.DType() {
	case tensor.Float32:
		pool2d[float32](result, input, kernel, stride, float32(math.Inf(-1)), func(acc, v float32) float32 { return max(acc, v) }, nil, cpu.workers)
	case tensor.Float64:
		pool2d[float64](result, input, kernel, stride, math.Inf(-1), func(acc, v float64) float64 { return max(acc, v) }, nil, cpu.workers)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}

	return result
}

// AvgPool2D performs 2D average pooling over a [N, C, H, W] input without
// padding. Kernel and stride are given per spatial axis as [height, width].
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	result := poolOutput("avgpool2d", input, kernel, stride)
	windowSize := kernel[0] * kernel[1]

	switch input.DType() {
	case tensor.Float32:
		pool2d[float32](result, input, kernel, stride, 0, func(acc, v float32) float32 { return acc + v },
			func(acc float32) float32 { return acc / float32(windowSize) }, cpu.workers)
	case tensor.Float64:
		pool2d[float64](result, input, kernel, stride, 0, func(acc, v float64) float64 { return acc + v },
			func(acc float64) float64 { return acc / float64(windowSize) }, cpu.workers)
	default:
		panic(fmt.Sprintf("avgpool2d: unsupported dtype %s", input.DType()))
	}

	return result
}

// poolOutput validates pooling arguments and allocates the output tensor.
func poolOutput(name string, input *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, input.Rank()))
	}
	if kernel[0] <= 0 || kernel[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel %v", name, kernel))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %v", name, stride))
	}

	shape := input.Shape()
	h, w := shape[2], shape[3]
	hOut := (h-kernel[0])/stride[0] + 1
	wOut := (w-kernel[1])/stride[1] + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("%s: kernel %v too large for input %dx%d", name, kernel, h, w))
	}

	result, err := tensor.NewRaw(tensor.Shape{shape[0], shape[1], hOut, wOut}, input.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	return result
}

// pool2d slides the pooling window, folding each element with reduce and
// applying finish (if non-nil) to the accumulated value.
func pool2d[T tensor.Float](result, input *tensor.RawTensor, kernel, stride [2]int, init T, reduce func(T, T) T, finish func(T) T, workers parallel.Config) {
	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hOut, wOut := result.Shape()[2], result.Shape()[3]

	in := tensor.View[T](input)
	out := tensor.View[T](result)

	// Each (b, ch) pair writes a disjoint output plane.
	parallel.ForBatch(n, c, func(b, ch int) {
		plane := in[(b*c+ch)*h*w : (b*c+ch+1)*h*w]
		for oh := 0; oh < hOut; oh++ {
			hStart := oh * stride[0]
			for ow := 0; ow < wOut; ow++ {
				wStart := ow * stride[1]
				acc := init
				for ky := 0; ky < kernel[0]; ky++ {
					row := plane[(hStart+ky)*w : (hStart+ky)*w+w]
					for kx := 0; kx < kernel[1]; kx++ {
						acc = reduce(acc, row[wStart+kx])
					}
				}
				if finish != nil {
					acc = finish(acc)
				}
				out[((b*c+ch)*hOut+oh)*wOut+ow] = acc
			}
		}
	}, workers)
}
