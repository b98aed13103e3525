package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/augment/internal/tensor"
)

// fakeAccelerator stands in for a GPU backend: it tags tensors with its device
// and counts transfers.
type fakeAccelerator struct {
	device    tensor.Device
	uploads   int
	downloads int
	failNext  bool
}

func (f *fakeAccelerator) Device() tensor.Device { return f.device }

func (f *fakeAccelerator) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if f.failNext {
		f.failNext = false
		return nil, errors.New("out of device memory")
	}
	f.uploads++
	return x.Copy(f.device), nil
}

func (f *fakeAccelerator) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	f.downloads++
	return x.Copy(tensor.CPU), nil
}

func newTestRegistry() (*Registry, *fakeAccelerator) {
	reg := NewRegistry()
	acc := &fakeAccelerator{device: tensor.Metal}
	reg.Register(acc)
	return reg, acc
}

func TestRegistryDevices(t *testing.T) {
	reg, _ := newTestRegistry()
	assert.Equal(t, []tensor.Device{tensor.CPU, tensor.Metal}, reg.Devices())

	_, err := reg.Lookup(tensor.CUDA)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceUnavailable))
}

func TestDefaultRegistryHasCPU(t *testing.T) {
	_, err := Default().Lookup(tensor.CPU)
	require.NoError(t, err)
	assert.Same(t, Default(), Default())
}

func TestToNoChangeReturnsInput(t *testing.T) {
	reg, _ := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	out, err := reg.To(x)
	require.NoError(t, err)
	assert.Same(t, x, out)

	out, err = reg.To(x, OnDevice(tensor.CPU), AsType(tensor.Int64))
	require.NoError(t, err)
	assert.Same(t, x, out)
}

func TestToCopy(t *testing.T) {
	reg, _ := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	out, err := reg.To(x, Copy())
	require.NoError(t, err)
	assert.NotSame(t, x, out)
	assert.False(t, out.SharesBuffer(x))
	assert.Equal(t, []int64{1, 2}, out.AsInt64())
}

func TestToCastOnly(t *testing.T) {
	reg, acc := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	out, err := reg.To(x, AsType(tensor.Float32))
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, out.DType())
	assert.Equal(t, tensor.CPU, out.Device())
	assert.Equal(t, []float32{1, 2}, out.AsFloat32())
	assert.Zero(t, acc.uploads)
}

func TestToAccelerator(t *testing.T) {
	reg, acc := newTestRegistry()
	x, err := tensor.FromFloat64s([]float64{1.5, 2.5}, tensor.Shape{2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	gpu, err := reg.To(x, OnDevice(tensor.Metal))
	require.NoError(t, err)
	assert.Equal(t, tensor.Metal, gpu.Device())
	assert.Equal(t, 1, acc.uploads)

	back, err := reg.To(gpu, OnDevice(tensor.CPU), AsType(tensor.Float64))
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, back.Device())
	assert.Equal(t, []float64{1.5, 2.5}, back.AsFloat64())
	assert.Equal(t, 1, acc.downloads)
}

func TestToCastOnAccelerator(t *testing.T) {
	reg, acc := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{3}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)
	gpu, err := reg.To(x, OnDevice(tensor.Metal))
	require.NoError(t, err)

	out, err := reg.To(gpu, AsType(tensor.Float32))
	require.NoError(t, err)
	assert.Equal(t, tensor.Metal, out.Device())
	assert.Equal(t, tensor.Float32, out.DType())
	assert.Equal(t, 1, acc.downloads)
	assert.Equal(t, 2, acc.uploads)
}

func TestToLikeOverridesExplicit(t *testing.T) {
	reg, _ := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)
	ref, err := tensor.NewRaw(tensor.Shape{1}, tensor.Uint8, tensor.Metal)
	require.NoError(t, err)

	out, err := reg.To(x, Like(ref), OnDevice(tensor.CPU), AsType(tensor.Float64))
	require.NoError(t, err)
	assert.Equal(t, tensor.Metal, out.Device())
	assert.Equal(t, tensor.Uint8, out.DType())
}

func TestToPinDeviceOverridesLike(t *testing.T) {
	reg, _ := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.Metal)
	require.NoError(t, err)
	ref, err := tensor.NewRaw(tensor.Shape{1}, tensor.Uint8, tensor.Metal)
	require.NoError(t, err)

	out, err := reg.To(x, PinDevice(tensor.CPU), Like(ref))
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, out.Device())
	assert.Equal(t, tensor.Uint8, out.DType())
}

func TestToInvalidDType(t *testing.T) {
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)

	_, err = NewRegistry().To(x, AsType(tensor.DataType(99)))
	assert.ErrorIs(t, err, tensor.ErrInvalidDType)
}

func TestToUnknownDevice(t *testing.T) {
	reg, _ := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)

	_, err = reg.To(x, OnDevice(tensor.CUDA))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestToUploadFailure(t *testing.T) {
	reg, acc := newTestRegistry()
	acc.failNext = true
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)

	_, err = reg.To(x, OnDevice(tensor.Metal))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of device memory")
}

func TestPackageToUsesRegistryOption(t *testing.T) {
	reg, acc := newTestRegistry()
	x, err := tensor.FromInt64s([]int64{1}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)

	out, err := To(x, OnDevice(tensor.Metal), WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, tensor.Metal, out.Device())
	assert.Equal(t, 1, acc.uploads)
}

func TestToNilTensor(t *testing.T) {
	_, err := To(nil)
	assert.Error(t, err)
}
