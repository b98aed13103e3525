//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/augment/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Upload copies x into a GPU storage buffer and returns a tensor tagged WebGPU.
// The returned tensor keeps a host copy. Its GPU buffer is attached to the
// tensor's storage, so views share it, and it is released with the last view,
// by Free, or by Release.
func (b *Backend) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	out := x.Copy(tensor.WebGPU)

	// WebGPU buffer sizes must be multiples of 4 and non-zero.
	size := alignedSize(out.ByteSize())
	data := make([]byte, size)
	copy(data, out.Data())

	buffer := b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	rb := &residentBuffer{owner: b, buffer: buffer, size: size}

	b.mu.Lock()
	b.resident[rb] = struct{}{}
	b.memoryStats.totalAllocatedBytes += size
	b.memoryStats.activeBuffers++
	if live := b.residentBytesLocked(); live > b.memoryStats.peakMemoryBytes {
		b.memoryStats.peakMemoryBytes = live
	}
	b.mu.Unlock()

	out.AttachDeviceMemory(rb)
	return out, nil
}

// Download reads x's GPU buffer back into a new CPU tensor. Tensors tagged
// WebGPU that never had a buffer uploaded (broadcast results) are served from
// their host copy.
func (b *Backend) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	mem := x.DeviceMemory()
	if mem == nil {
		return x.Copy(tensor.CPU), nil
	}
	rb, ok := mem.(*residentBuffer)
	if !ok || rb.owner != b {
		return nil, fmt.Errorf("webgpu: tensor %v is not resident on this device", x)
	}

	b.mu.Lock()
	_, live := b.resident[rb]
	b.mu.Unlock()
	if !live {
		return nil, fmt.Errorf("webgpu: tensor %v: buffer already released", x)
	}

	data, err := b.readBuffer(rb.buffer, rb.size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: download failed: %w", err)
	}

	out, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("webgpu: download: %w", err)
	}
	copy(out.Data(), data[:out.ByteSize()])
	return out, nil
}

// Free releases the GPU buffer of x and of every view sharing its storage.
// Tensors without one are ignored.
func (b *Backend) Free(x *tensor.RawTensor) {
	if rb, ok := x.DeviceMemory().(*residentBuffer); ok && rb.owner == b {
		x.DetachDeviceMemory()
		rb.Free()
	}
}

// Free releases the buffer once; later calls are no-ops.
func (rb *residentBuffer) Free() {
	b := rb.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freeLocked(rb)
}

func (b *Backend) freeLocked(rb *residentBuffer) {
	if _, ok := b.resident[rb]; !ok {
		return
	}
	rb.buffer.Release()
	delete(b.resident, rb)
	b.memoryStats.activeBuffers--
}

func (b *Backend) residentBytesLocked() uint64 {
	var total uint64
	for rb := range b.resident {
		total += rb.size
	}
	return total
}

func alignedSize(n int) uint64 {
	size := uint64(n) //nolint:gosec // G115: ByteSize() is non-negative
	size = (size + 3) &^ 3
	if size == 0 {
		size = 4
	}
	return size
}

// createBuffer creates a GPU buffer initialized with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a pooled staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer, class := b.staging.acquire(b.device, size)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		stagingBuffer.Release()
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()
	b.staging.release(stagingBuffer, class)

	return result, nil
}
