package tensor

import "fmt"

// Float64At returns the element at flat index i converted to float64.
// Bool elements read as 0 or 1.
func (r *RawTensor) Float64At(i int) float64 {
	switch r.dtype {
	case Float32:
		return float64(r.AsFloat32()[i])
	case Float64:
		return r.AsFloat64()[i]
	case Int32:
		return float64(r.AsInt32()[i])
	case Int64:
		return float64(r.AsInt64()[i])
	case Uint8:
		return float64(r.AsUint8()[i])
	case Bool:
		if r.AsBool()[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("unsupported dtype %v", r.dtype))
	}
}

// SetFloat64 stores v at flat index i, converting it to the tensor's dtype.
// Integer dtypes truncate toward zero; Bool stores v != 0.
func (r *RawTensor) SetFloat64(i int, v float64) {
	switch r.dtype {
	case Float32:
		r.AsFloat32()[i] = float32(v)
	case Float64:
		r.AsFloat64()[i] = v
	case Int32:
		r.AsInt32()[i] = int32(v)
	case Int64:
		r.AsInt64()[i] = int64(v)
	case Uint8:
		r.AsUint8()[i] = uint8(int64(v)) //nolint:gosec // G115: wraps like the other array libraries do.
	case Bool:
		r.AsBool()[i] = v != 0
	default:
		panic(fmt.Sprintf("unsupported dtype %v", r.dtype))
	}
}

// Fill sets every element to v.
func (r *RawTensor) Fill(v float64) {
	n := r.NumElements()
	for i := 0; i < n; i++ {
		r.SetFloat64(i, v)
	}
}

// Float64s returns a copy of all elements converted to float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	for i := range out {
		out[i] = r.Float64At(i)
	}
	return out
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRaw(shape, dtype, device)
}

// ZerosLike creates a zero-filled tensor with x's shape, dtype and device.
func ZerosLike(x *RawTensor) *RawTensor {
	out, err := NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(err) // x already carries a valid shape
	}
	return out
}

// FromFloat64s creates a tensor of the given dtype from float64 values.
func FromFloat64s(values []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(values))
	}
	out, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		out.SetFloat64(i, v)
	}
	return out, nil
}

// FromInt64s creates an Int64 tensor from the given values.
func FromInt64s(values []int64, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(values))
	}
	out, err := NewRaw(shape, Int64, device)
	if err != nil {
		return nil, err
	}
	copy(out.AsInt64(), values)
	return out, nil
}

// Reshape returns a tensor with the given shape.
//
// When the element counts match the result is a view sharing x's buffer.
// A single-element tensor broadcasts to any shape (a new buffer is allocated).
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}

	if shape.NumElements() == r.NumElements() {
		view := r.Clone()
		view.shape = shape.Clone()
		view.stride = shape.ComputeStrides()
		return view, nil
	}

	if r.NumElements() == 1 {
		out, err := NewRaw(shape, r.dtype, r.device)
		if err != nil {
			return nil, fmt.Errorf("reshape: %w", err)
		}
		src := r.Data()
		dst := out.Data()
		for off := 0; off < len(dst); off += len(src) {
			copy(dst[off:], src)
		}
		return out, nil
	}

	return nil, fmt.Errorf("reshape: cannot reshape tensor of shape %v (%d elements) into shape %v (%d elements)",
		r.shape, r.NumElements(), shape, shape.NumElements())
}
