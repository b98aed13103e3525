package cpu

import (
	"fmt"

	"github.com/born-ml/augment/internal/parallel"
	"github.com/born-ml/augment/internal/tensor"
)

type numeric interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// Cast converts the tensor to a different data type.
// The result stays on x's device; a matching dtype returns x unchanged.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if x.DType() == dtype {
		return x, nil
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, x.Device())
	if err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}

	if err := castImpl(result, x); err != nil {
		return nil, err
	}
	return result, nil
}

func castImpl(result, x *tensor.RawTensor) error {
	switch x.DType() {
	case tensor.Float32:
		return castFrom(result, x.AsFloat32())
	case tensor.Float64:
		return castFrom(result, x.AsFloat64())
	case tensor.Int32:
		return castFrom(result, x.AsInt32())
	case tensor.Int64:
		return castFrom(result, x.AsInt64())
	case tensor.Uint8:
		return castFrom(result, x.AsUint8())
	case tensor.Bool:
		return castFromBool(result, x.AsBool())
	default:
		return fmt.Errorf("cast: unsupported source dtype %v", x.DType())
	}
}

func castFrom[S numeric](result *tensor.RawTensor, src []S) error {
	switch result.DType() {
	case tensor.Float32:
		convert(result.AsFloat32(), src)
	case tensor.Float64:
		convert(result.AsFloat64(), src)
	case tensor.Int32:
		convert(result.AsInt32(), src)
	case tensor.Int64:
		convert(result.AsInt64(), src)
	case tensor.Uint8:
		convert(result.AsUint8(), src)
	case tensor.Bool:
		dst := result.AsBool()
		parallel.For(len(src), func(i int) {
			dst[i] = src[i] != 0
		}, parallel.DefaultConfig())
	default:
		return fmt.Errorf("cast: unsupported target dtype %v", result.DType())
	}
	return nil
}

func castFromBool(result *tensor.RawTensor, src []bool) error {
	if result.DType() == tensor.Bool {
		copy(result.AsBool(), src)
		return nil
	}
	for i, v := range src {
		if v {
			result.SetFloat64(i, 1)
		}
	}
	return nil
}

func convert[D, S numeric](dst []D, src []S) {
	parallel.ForRange(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = D(src[i])
		}
	}, parallel.DefaultConfig())
}
