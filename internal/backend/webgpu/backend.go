//go:build windows

// Package webgpu implements tensor placement on GPU memory through WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/augment/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Backend uploads tensors to GPU storage buffers and reads them back.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// GPU buffers currently allocated on this device.
	resident map[*residentBuffer]struct{}
	mu       sync.Mutex

	staging *stagingPool

	memoryStats struct {
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBuffers       int64
	}
}

// residentBuffer is the device memory attached to uploaded tensors.
type residentBuffer struct {
	owner  *Backend
	buffer *wgpu.Buffer
	size   uint64 // Aligned to 4 bytes
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    queue,
		resident: make(map[*residentBuffer]struct{}),
		staging:  newStagingPool(),
	}, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Release releases all GPU buffers and WebGPU objects.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for rb := range b.resident {
		b.freeLocked(rb)
	}
	b.staging.clear()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// MemoryStats returns the total bytes ever allocated, the peak resident bytes and
// the number of live buffers.
func (b *Backend) MemoryStats() (total, peak uint64, active int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.memoryStats.totalAllocatedBytes, b.memoryStats.peakMemoryBytes, b.memoryStats.activeBuffers
}
