package augment

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/internal/tensor"
)

// Sampler draws random values for a Parameter.
type Sampler interface {
	// Sample returns n values as a flat sequence, a (possibly nested) []any, a
	// scalar, or a *tensor.RawTensor.
	Sample(n int) (any, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(n int) (any, error)

// Sample calls f(n).
func (f SamplerFunc) Sample(n int) (any, error) {
	return f(n)
}

// Parameter injects randomness into transforms: it asks its Sampler for as
// many values as a requested shape holds and returns them in that shape.
type Parameter struct {
	sampler Sampler
}

// NewParameter creates a Parameter backed by s.
func NewParameter(s Sampler) *Parameter {
	return &Parameter{sampler: s}
}

// Sampler returns the underlying sampler.
func (p *Parameter) Sampler() Sampler {
	return p.sampler
}

// Forward samples size.NumElements() values and returns them as a tensor of
// shape size placed according to opts (device.OnDevice, device.AsType,
// device.Like; Like wins over the other two). A nil size means Shape{1}.
//
// Samples that cannot be turned into a tensor (strings, structs, mixed values)
// are returned exactly as the sampler produced them, without reshaping or
// placement. Nested lists of uneven length fail with ErrRaggedSample. A single
// sampled value broadcasts to any size; any other count mismatch is a reshape
// error.
func (p *Parameter) Forward(size tensor.Shape, opts ...device.Option) (any, error) {
	if size == nil {
		size = tensor.Shape{1}
	}
	if err := size.Validate(); err != nil {
		return nil, fmt.Errorf("parameter: %w", err)
	}

	flat, err := p.sampler.Sample(size.NumElements())
	if err != nil {
		return nil, fmt.Errorf("parameter: sample: %w", err)
	}

	samples, err := asTensor(flat)
	if errors.Is(err, errNotNumeric) {
		return flat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parameter: %w", err)
	}

	shaped, err := samples.Reshape(size)
	if err != nil {
		return nil, err
	}
	return device.To(shaped, opts...)
}

// errNotNumeric marks sampler output that is returned as-is instead of being
// turned into a tensor.
var errNotNumeric = errors.New("sample is not numeric")

// asTensor coerces sampler output into a CPU tensor. It fails with
// errNotNumeric when the values are not numbers, and with ErrRaggedSample when
// nested lists do not form a regular array.
func asTensor(v any) (*tensor.RawTensor, error) {
	switch s := v.(type) {
	case *tensor.RawTensor:
		if s == nil {
			return nil, errNotNumeric
		}
		return s, nil
	case []float32:
		return fromTyped(s, tensor.Float32, func(r *tensor.RawTensor) { copy(r.AsFloat32(), s) })
	case []float64:
		return fromTyped(s, tensor.Float64, func(r *tensor.RawTensor) { copy(r.AsFloat64(), s) })
	case []int32:
		return fromTyped(s, tensor.Int32, func(r *tensor.RawTensor) { copy(r.AsInt32(), s) })
	case []int64:
		return fromTyped(s, tensor.Int64, func(r *tensor.RawTensor) { copy(r.AsInt64(), s) })
	case []uint8:
		return fromTyped(s, tensor.Uint8, func(r *tensor.RawTensor) { copy(r.AsUint8(), s) })
	case []bool:
		return fromTyped(s, tensor.Bool, func(r *tensor.RawTensor) { copy(r.AsBool(), s) })
	case []int:
		return fromTyped(s, tensor.Int64, func(r *tensor.RawTensor) {
			dst := r.AsInt64()
			for i, x := range s {
				dst[i] = int64(x)
			}
		})
	case []any:
		return fromList(s)
	}

	if x, kind, ok := scalarValue(v); ok {
		return tensor.FromFloat64s([]float64{x}, tensor.Shape{}, kind, tensor.CPU)
	}
	return nil, errNotNumeric
}

func fromTyped[T any](s []T, dtype tensor.DataType, fill func(*tensor.RawTensor)) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(tensor.Shape{len(s)}, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	fill(out)
	return out, nil
}

// fromList flattens a (possibly nested) list of numbers. Any float makes the
// result float32; otherwise any integer makes it int64; all-bool lists stay bool.
// Sibling lists must have equal lengths and all numbers must sit at the same
// depth.
func fromList(list []any) (*tensor.RawTensor, error) {
	var values []float64
	var sawFloat, sawInt bool
	var dims []int
	leafDepth := -1

	var walk func(items []any, depth int) error
	walk = func(items []any, depth int) error {
		if depth == len(dims) {
			dims = append(dims, len(items))
		} else if dims[depth] != len(items) {
			return fmt.Errorf("%w: length %d at depth %d, expected %d", ErrRaggedSample, len(items), depth, dims[depth])
		}
		if leafDepth >= 0 && depth >= leafDepth {
			return fmt.Errorf("%w: list at depth %d holds numbers at depth %d", ErrRaggedSample, depth, leafDepth)
		}

		for _, item := range items {
			if nested, ok := item.([]any); ok {
				if err := walk(nested, depth+1); err != nil {
					return err
				}
				continue
			}
			x, kind, ok := scalarValue(item)
			if !ok {
				return errNotNumeric
			}
			if leafDepth < 0 {
				leafDepth = depth + 1
			} else if leafDepth != depth+1 {
				return fmt.Errorf("%w: number at depth %d, expected %d", ErrRaggedSample, depth+1, leafDepth)
			}
			switch {
			case kind.IsFloat():
				sawFloat = true
			case kind != tensor.Bool:
				sawInt = true
			}
			values = append(values, x)
		}
		return nil
	}
	if err := walk(list, 0); err != nil {
		return nil, err
	}

	dtype := tensor.Float32
	switch {
	case sawFloat:
		dtype = tensor.Float32
	case sawInt:
		dtype = tensor.Int64
	case len(values) > 0:
		dtype = tensor.Bool
	}

	return tensor.FromFloat64s(values, tensor.Shape{len(values)}, dtype, tensor.CPU)
}

// scalarValue converts a Go number or bool to float64 along with the dtype a
// tensor holding it should have.
func scalarValue(v any) (float64, tensor.DataType, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, tensor.Bool, true
		}
		return 0, tensor.Bool, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32:
		return rv.Float(), tensor.Float32, true
	case reflect.Float64:
		return rv.Float(), tensor.Float64, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), tensor.Int64, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), tensor.Int64, true
	default:
		return 0, 0, false
	}
}
