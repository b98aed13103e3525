// Package cpu implements the host-memory backend: dtype casts and transfers to
// and from CPU-resident tensors.
package cpu

import (
	"github.com/born-ml/augment/internal/tensor"
)

// CPUBackend places tensors in host memory.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Upload places x in host memory. The result never shares x's buffer.
func (cpu *CPUBackend) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return x.Copy(cpu.device), nil
}

// Download returns a host copy of a CPU tensor.
func (cpu *CPUBackend) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return x.Copy(cpu.device), nil
}
