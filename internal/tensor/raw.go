package tensor

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// tensorBuffer is a reference-counted shared buffer.
// Views created by Clone and Reshape share it; Copy allocates a new one.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex   // For safe deallocation
	devMem   DeviceMemory // Backend storage mirroring data, if any
	cleanup  *runtime.Cleanup
}

// setDeviceMemory swaps the attached device memory and returns the old one.
// Callers hold tb.mu.
func (tb *tensorBuffer) setDeviceMemory(m DeviceMemory) DeviceMemory {
	prev := tb.devMem
	tb.devMem = m
	if tb.cleanup != nil {
		tb.cleanup.Stop()
		tb.cleanup = nil
	}
	if m != nil {
		c := runtime.AddCleanup(tb, func(m DeviceMemory) { m.Free() }, m)
		tb.cleanup = &c
	}
	return prev
}

// DeviceMemory is accelerator storage a backend attaches to a tensor buffer.
// Free must be safe to call more than once.
type DeviceMemory interface {
	Free()
}

// Errors returned when a tensor cannot be allocated.
var (
	ErrInvalidDType = errors.New("invalid data type")
	ErrTooLarge     = errors.New("tensor too large")
)

// MaxByteSize caps the size of a single tensor buffer.
const MaxByteSize = 1 << 40

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
		if prev := tb.setDeviceMemory(nil); prev != nil {
			prev.Free()
		}
	}
}

func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation.
//
// The element data always lives in host memory. Tensors tagged with an
// accelerator device additionally own a device-side copy managed by the
// backend that placed them there.
type RawTensor struct {
	buffer *tensorBuffer // Shared reference-counted buffer
	shape  Shape         // Tensor dimensions
	stride []int         // Memory strides (row-major)
	dtype  DataType      // Runtime type information
	device Device        // Compute device
	offset int           // Byte offset for views
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	byteSize, err := ByteSizeOf(shape, dtype)
	if err != nil {
		return nil, err
	}

	return &RawTensor{
		buffer: newTensorBuffer(byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// ByteSizeOf returns the number of bytes a tensor of the given shape and dtype
// occupies. It fails for negative dimensions, unknown dtypes, and sizes above
// MaxByteSize.
func ByteSizeOf(shape Shape, dtype DataType) (int, error) {
	if err := shape.Validate(); err != nil {
		return 0, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDType, int(dtype))
	}

	size := dtype.Size()
	for _, dim := range shape {
		if dim != 0 && size > MaxByteSize/dim {
			return 0, fmt.Errorf("%w: shape %v of %s exceeds %d bytes", ErrTooLarge, shape, dtype, MaxByteSize)
		}
		size *= dim
	}
	return size, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset : r.offset+r.ByteSize()]
}

func (r *RawTensor) checkDType(want DataType) {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.checkDType(Float32)
	if r.NumElements() == 0 {
		return []float32{}
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.checkDType(Float64)
	if r.NumElements() == 0 {
		return []float64{}
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	r.checkDType(Int32)
	if r.NumElements() == 0 {
		return []int32{}
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	r.checkDType(Int64)
	if r.NumElements() == 0 {
		return []int64{}
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	r.checkDType(Uint8)
	return r.buffer.data[r.offset : r.offset+r.NumElements()]
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	r.checkDType(Bool)
	if r.NumElements() == 0 {
		return []bool{}
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Copy creates a deep copy of the RawTensor placed on the given device tag.
// Device-side storage is not copied; backends attach it when they upload.
func (r *RawTensor) Copy(device Device) *RawTensor {
	out := &RawTensor{
		buffer: newTensorBuffer(r.ByteSize()),
		shape:  r.shape.Clone(),
		stride: r.shape.ComputeStrides(),
		dtype:  r.dtype,
		device: device,
		offset: 0,
	}
	copy(out.buffer.data, r.Data())
	return out
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// AttachDeviceMemory records m as the device-side storage of r's buffer,
// replacing any previous one. Views sharing the buffer see it too. m is freed
// when the last view is released or the buffer becomes unreachable.
func (r *RawTensor) AttachDeviceMemory(m DeviceMemory) {
	r.buffer.mu.Lock()
	prev := r.buffer.setDeviceMemory(m)
	r.buffer.mu.Unlock()

	if prev != nil && prev != m {
		prev.Free()
	}
}

// DeviceMemory returns the device-side storage of r's buffer, or nil.
func (r *RawTensor) DeviceMemory() DeviceMemory {
	r.buffer.mu.Lock()
	defer r.buffer.mu.Unlock()
	return r.buffer.devMem
}

// DetachDeviceMemory removes and returns the device-side storage of r's
// buffer without freeing it.
func (r *RawTensor) DetachDeviceMemory() DeviceMemory {
	r.buffer.mu.Lock()
	defer r.buffer.mu.Unlock()
	return r.buffer.setDeviceMemory(nil)
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// SharesBuffer reports whether r and other are views of the same memory.
func (r *RawTensor) SharesBuffer(other *RawTensor) bool {
	return other != nil && r.buffer == other.buffer
}

// String returns a human-readable representation of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
