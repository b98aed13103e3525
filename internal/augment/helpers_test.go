package augment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/internal/tensor"
)

// fakeAccelerator tags tensors with an accelerator device without real
// hardware, so placement paths can be tested anywhere.
type fakeAccelerator struct {
	device  tensor.Device
	uploads int
}

func (f *fakeAccelerator) Device() tensor.Device { return f.device }

func (f *fakeAccelerator) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	f.uploads++
	return x.Copy(f.device), nil
}

func (f *fakeAccelerator) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return x.Copy(tensor.CPU), nil
}

func newAcceleratorRegistry() (*device.Registry, *fakeAccelerator) {
	reg := device.NewRegistry()
	acc := &fakeAccelerator{device: tensor.Metal}
	reg.Register(acc)
	return reg, acc
}

func int64Tensor(t *testing.T, shape tensor.Shape, values ...int64) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromInt64s(values, shape, tensor.CPU)
	require.NoError(t, err)
	return x
}

func float32Values(t *testing.T, x *tensor.RawTensor) []float32 {
	t.Helper()
	require.Equal(t, tensor.Float32, x.DType())
	return append([]float32(nil), x.AsFloat32()...)
}
