package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/parallel"
	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Conv1D performs 1D convolution.
//
// Input shape:  [N, C_in, L]
// Kernel shape: [C_out, C_in/groups, K]
// Output shape: [N, C_out, L_out] with L_out = (L + 2*pad - dilation*(K-1) - 1)/stride + 1
func (cpu *CPUBackend) Conv1D(input, kernel *tensor.RawTensor, pad, stride, dilation, groups int) *tensor.RawTensor {
	if input.Rank() != 3 {
		panic(fmt.Sprintf("conv1d: input must be 3D [N,C,L], got %dD", input.Rank()))
	}
	if kernel.Rank() != 3 {
		panic(fmt.Sprintf("conv1d: kernel must be 3D [C_out,C_in/g,K], got %dD", kernel.Rank()))
	}

	inShape := input.Shape()
	kShape := kernel.Shape()
	n, cIn, l := inShape[0], inShape[1], inShape[2]
	cOut, cInPerGroup, k := kShape[0], kShape[1], kShape[2]

	validateGroups("conv1d", cIn, cOut, cInPerGroup, groups)

	lOut := (l+2*pad-dilation*(k-1)-1)/stride + 1
	if lOut <= 0 {
		panic(fmt.Sprintf("conv1d: invalid output length %d (input %d, kernel %d, pad %d, stride %d, dilation %d)",
			lOut, l, k, pad, stride, dilation))
	}

	result, err := tensor.NewRaw(tensor.Shape{n, cOut, lOut}, input.DType())
	if err != nil {
		panic(fmt.Sprintf("conv1d: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv1d[float32](result, input, kernel, pad, stride, dilation, groups, cpu.workers)
	case tensor.Float64:
		conv1d[float64](result, input, kernel, pad, stride, dilation, groups, cpu.workers)
	default:
		panic(fmt.Sprintf("conv1d: unsupported dtype %s", input.DType()))
	}

	return result
}

func conv1d[T tensor.Float](result, input, kernel *tensor.RawTensor, pad, stride, dilation, groups int, workers parallel.Config) {
	inShape := input.Shape()
	kShape := kernel.Shape()
	n, cIn, l := inShape[0], inShape[1], inShape[2]
	cOut, cInPerGroup, k := kShape[0], kShape[1], kShape[2]
	lOut := result.Shape()[2]
	cOutPerGroup := cOut / groups

	in := tensor.View[T](input)
	ker := tensor.View[T](kernel)
	out := tensor.View[T](result)

	// Each (b, oc) pair writes a disjoint output slab.
	parallel.ForBatch(n, cOut, func(b, oc int) {
		group := oc / cOutPerGroup
		icBase := group * cInPerGroup
		for ol := 0; ol < lOut; ol++ {
			var sum T
			for ic := 0; ic < cInPerGroup; ic++ {
				inChan := in[(b*cIn+icBase+ic)*l : (b*cIn+icBase+ic+1)*l]
				kerChan := ker[(oc*cInPerGroup+ic)*k : (oc*cInPerGroup+ic+1)*k]
				for kk := 0; kk < k; kk++ {
					pos := ol*stride - pad + kk*dilation
					if pos >= 0 && pos < l {
						sum += inChan[pos] * kerChan[kk]
					}
				}
			}
			out[(b*cOut+oc)*lOut+ol] = sum
		}
	}, workers)
}

// Conv2D performs 2D convolution with symmetric zero padding, uniform stride
// and dilation, and grouped channels.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in/groups, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, pad, stride, dilation, groups int) *tensor.RawTensor {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", input.Rank()))
	}
	if kernel.Rank() != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in/g,K_h,K_w], got %dD", kernel.Rank()))
	}

	inShape := input.Shape()
	kShape := kernel.Shape()
	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, cInPerGroup, kh, kw := kShape[0], kShape[1], kShape[2], kShape[3]

	validateGroups("conv2d", cIn, cOut, cInPerGroup, groups)

	hOut := (h+2*pad-dilation*(kh-1)-1)/stride + 1
	wOut := (w+2*pad-dilation*(kw-1)-1)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check kernel/stride/padding)", hOut, wOut))
	}

	result, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, input.DType())
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2d[float32](result, input, kernel, pad, stride, dilation, groups, cpu.workers)
	case tensor.Float64:
		conv2d[float64](result, input, kernel, pad, stride, dilation, groups, cpu.workers)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return result
}

func conv2d[T tensor.Float](result, input, kernel *tensor.RawTensor, pad, stride, dilation, groups int, workers parallel.Config) {
	inShape := input.Shape()
	kShape := kernel.Shape()
	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, cInPerGroup, kh, kw := kShape[0], kShape[1], kShape[2], kShape[3]
	hOut, wOut := result.Shape()[2], result.Shape()[3]
	cOutPerGroup := cOut / groups

	in := tensor.View[T](input)
	ker := tensor.View[T](kernel)
	out := tensor.View[T](result)

	// Each (b, oc) pair writes a disjoint output slab.
	parallel.ForBatch(n, cOut, func(b, oc int) {
		group := oc / cOutPerGroup
		icBase := group * cInPerGroup
		for oh := 0; oh < hOut; oh++ {
			hStart := oh*stride - pad
			for ow := 0; ow < wOut; ow++ {
				wStart := ow*stride - pad
				var sum T
				for ic := 0; ic < cInPerGroup; ic++ {
					inChan := in[(b*cIn+icBase+ic)*h*w : (b*cIn+icBase+ic+1)*h*w]
					kerChan := ker[(oc*cInPerGroup+ic)*kh*kw : (oc*cInPerGroup+ic+1)*kh*kw]
					for ky := 0; ky < kh; ky++ {
						y := hStart + ky*dilation
						if y < 0 || y >= h {
							continue
						}
						for kx := 0; kx < kw; kx++ {
							x := wStart + kx*dilation
							if x < 0 || x >= w {
								continue
							}
							sum += inChan[y*w+x] * kerChan[ky*kw+kx]
						}
					}
				}
				out[((b*cOut+oc)*hOut+oh)*wOut+ow] = sum
			}
		}
	}, workers)
}

func validateGroups(name string, cIn, cOut, cInPerGroup, groups int) {
	if groups <= 0 {
		panic(fmt.Sprintf("%s: groups must be positive, got %d", name, groups))
	}
	if cIn%groups != 0 || cOut%groups != 0 {
		panic(fmt.Sprintf("%s: channels not divisible by groups: C_in=%d, C_out=%d, groups=%d", name, cIn, cOut, groups))
	}
	if cInPerGroup != cIn/groups {
		panic(fmt.Sprintf("%s: kernel expects %d input channels per group, input has %d", name, cInPerGroup, cIn/groups))
	}
}
