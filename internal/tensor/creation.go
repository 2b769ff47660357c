package tensor

import "fmt"

// FromSlice builds a RawTensor from a typed element slice. The slice is
// copied; the data length must match the shape's element count.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	t, err := NewRaw(shape, TypeOf[T]())
	if err != nil {
		return nil, err
	}
	copy(View[T](t), data)
	return t, nil
}

// Full builds a RawTensor with every element set to the given value.
func Full[T DType](shape Shape, value T) (*RawTensor, error) {
	t, err := NewRaw(shape, TypeOf[T]())
	if err != nil {
		return nil, err
	}
	dst := View[T](t)
	for i := range dst {
		dst[i] = value
	}
	return t, nil
}

// FromRawBytes builds a RawTensor by copying a raw little-endian byte buffer.
// The buffer length must match the shape and dtype exactly.
func FromRawBytes(data []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	want := shape.NumElements() * dtype.Size()
	if len(data) != want {
		return nil, fmt.Errorf("raw buffer length %d does not match shape %v of %s (%d bytes)",
			len(data), shape, dtype, want)
	}
	t, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	copy(t.Data(), data)
	return t, nil
}
