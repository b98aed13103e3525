package augment

import (
	"fmt"
	"reflect"

	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/internal/tensor"
)

// Variant classifies a value for ToDevice.
type Variant int

// Value variants. Only Sequence and Mapping are traversed.
const (
	Opaque   Variant = iota // Passed through unchanged
	Tensor                  // Relocated
	Sequence                // Slices and arrays
	Mapping                 // Maps
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Tensor:
		return "tensor"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "opaque"
	}
}

var rawTensorType = reflect.TypeOf((*tensor.RawTensor)(nil))

// Classify returns the variant of data. Strings are opaque even though they
// are indexable.
func Classify(data any) Variant {
	if _, ok := data.(*tensor.RawTensor); ok {
		return Tensor
	}
	switch reflect.ValueOf(data).Kind() {
	case reflect.Slice, reflect.Array:
		return Sequence
	case reflect.Map:
		return Mapping
	default:
		return Opaque
	}
}

// ToDevice relocates every tensor reachable through maps, slices and arrays in
// data to dev. Containers are rebuilt with the same type (maps keep their keys,
// sequences keep length and order); all other values pass through. The input is
// never mutated.
//
// opts are forwarded to every relocation; the dev argument wins over both an
// OnDevice and a Like option, while Like still supplies the dtype.
//
// Example:
//
//	batch := map[string]any{"data": img, "label": seg, "id": 7}
//	moved, err := augment.ToDevice(batch, tensor.WebGPU, device.AsType(tensor.Float32))
func ToDevice(data any, dev tensor.Device, opts ...device.Option) (any, error) {
	placement := make([]device.Option, 0, len(opts)+1)
	placement = append(placement, opts...)
	placement = append(placement, device.PinDevice(dev))
	return relocate(data, placement, "data")
}

func relocate(data any, opts []device.Option, path string) (any, error) {
	switch Classify(data) {
	case Tensor:
		x := data.(*tensor.RawTensor)
		if x == nil {
			return x, nil
		}
		out, err := device.To(x, opts...)
		if err != nil {
			return nil, fmt.Errorf("to device: %s: %w", path, err)
		}
		return out, nil

	case Mapping:
		rv := reflect.ValueOf(data)
		if rv.IsNil() {
			return data, nil
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			moved, err := relocateValue(iter.Value(), rv.Type().Elem(), opts, fmt.Sprintf("%s[%v]", path, iter.Key()))
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(iter.Key(), moved)
		}
		return out.Interface(), nil

	case Sequence:
		rv := reflect.ValueOf(data)
		var out reflect.Value
		if rv.Kind() == reflect.Array {
			out = reflect.New(rv.Type()).Elem()
		} else {
			if rv.IsNil() {
				return data, nil
			}
			out = reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		}
		if err := relocateElems(rv, out, opts, path); err != nil {
			return nil, err
		}
		return out.Interface(), nil

	default:
		return data, nil
	}
}

func relocateElems(src, dst reflect.Value, opts []device.Option, path string) error {
	elemType := src.Type().Elem()
	if !mayHoldTensor(elemType) {
		reflect.Copy(dst, src)
		return nil
	}
	for i := 0; i < src.Len(); i++ {
		moved, err := relocateValue(src.Index(i), elemType, opts, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return err
		}
		dst.Index(i).Set(moved)
	}
	return nil
}

func relocateValue(v reflect.Value, elemType reflect.Type, opts []device.Option, path string) (reflect.Value, error) {
	moved, err := relocate(v.Interface(), opts, path)
	if err != nil {
		return reflect.Value{}, err
	}
	if moved == nil {
		return reflect.Zero(elemType), nil
	}
	return reflect.ValueOf(moved), nil
}

// mayHoldTensor reports whether values of type t can be or contain a tensor.
func mayHoldTensor(t reflect.Type) bool {
	if t == rawTensorType {
		return true
	}
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Slice, reflect.Array:
		return mayHoldTensor(t.Elem())
	case reflect.Map:
		return mayHoldTensor(t.Elem())
	default:
		return false
	}
}
