package cpu

import (
	"fmt"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Reshape returns a view of the tensor under a new shape. The element count
// must match; the storage is shared, not copied.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	result, err := x.WithShape(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the tensor's dimensions. With no axes given, all
// dimensions are reversed.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != rank %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, x.DType())
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	// Gather elements byte-wise so a single loop covers every dtype.
	es := x.DType().Size()
	srcStrides := shape.ComputeStrides()
	dstStrides := newShape.ComputeStrides()
	src := x.Data()
	dst := result.Data()

	for i := 0; i < x.NumElements(); i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / dstStrides[d]
			rem %= dstStrides[d]
			srcIdx += coord * srcStrides[axes[d]]
		}
		copy(dst[i*es:(i+1)*es], src[srcIdx*es:(srcIdx+1)*es])
	}

	return result
}

// Squeeze removes a single dimension of size 1.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, axis int) *tensor.RawTensor {
	shape := x.Shape()
	if axis < 0 || axis >= len(shape) {
		panic(fmt.Sprintf("squeeze: axis %d out of range for rank %d", axis, len(shape)))
	}
	if shape[axis] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", axis, shape[axis]))
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:axis]...)
	newShape = append(newShape, shape[axis+1:]...)
	return cpu.Reshape(x, newShape)
}

// Unsqueeze inserts a dimension of size 1 at the given axis.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, axis int) *tensor.RawTensor {
	shape := x.Shape()
	if axis < 0 || axis > len(shape) {
		panic(fmt.Sprintf("unsqueeze: axis %d out of range for rank %d", axis, len(shape)))
	}

	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:axis]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[axis:]...)
	return cpu.Reshape(x, newShape)
}

// Pad inserts zero elements before and after the given axis.
func (cpu *CPUBackend) Pad(x *tensor.RawTensor, axis, before, after int) *tensor.RawTensor {
	shape := x.Shape()
	if axis < 0 || axis >= len(shape) {
		panic(fmt.Sprintf("pad: axis %d out of range for rank %d", axis, len(shape)))
	}
	if before < 0 || after < 0 {
		panic(fmt.Sprintf("pad: negative padding (%d, %d)", before, after))
	}
	if before == 0 && after == 0 {
		return x.Clone()
	}

	newShape := shape.Clone()
	newShape[axis] += before + after
	result, err := tensor.NewRaw(newShape, x.DType())
	if err != nil {
		panic(fmt.Sprintf("pad: %v", err))
	}

	// Copy row-major slabs: for every index prefix up to the padded axis,
	// the source slab lands at an offset of `before` inner blocks.
	es := x.DType().Size()
	inner := es
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	outer := 1
	for _, d := range shape[:axis] {
		outer *= d
	}

	src := x.Data()
	dst := result.Data()
	srcSlab := shape[axis] * inner
	dstSlab := newShape[axis] * inner
	for o := 0; o < outer; o++ {
		copy(dst[o*dstSlab+before*inner:o*dstSlab+before*inner+srcSlab], src[o*srcSlab:(o+1)*srcSlab])
	}

	return result
}

// Concat concatenates tensors along the given axis. All inputs must share
// dtype and rank, and agree on every dimension except the concat axis.
func (cpu *CPUBackend) Concat(tensors []*tensor.RawTensor, axis int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("concat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()
	if axis < 0 || axis >= ndim {
		panic(fmt.Sprintf("concat: axis %d out of range for %dD tensor", axis, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("concat: tensor %d has rank %d, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("concat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == axis {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("concat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[axis] = totalDim
	result, err := tensor.NewRaw(outShape, dtype)
	if err != nil {
		panic(fmt.Sprintf("concat: %v", err))
	}

	es := dtype.Size()
	inner := es
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	outer := 1
	for _, d := range shape[:axis] {
		outer *= d
	}

	dst := result.Data()
	dstSlab := totalDim * inner
	for o := 0; o < outer; o++ {
		off := o * dstSlab
		for _, t := range tensors {
			slab := t.Shape()[axis] * inner
			copy(dst[off:off+slab], t.Data()[o*slab:(o+1)*slab])
			off += slab
		}
	}

	return result
}
