// Package device relocates tensors between compute devices and casts them.
//
// A Registry maps each Device to the backend that can place tensors on it. The
// CPU backend is always present; accelerator backends are added when the
// platform build provides them and the hardware answers.
package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/born-ml/augment/internal/backend/cpu"
	"github.com/born-ml/augment/internal/tensor"
)

// ErrDeviceUnavailable is returned when no backend is registered for a device.
var ErrDeviceUnavailable = errors.New("device not available")

// Transferer moves tensors onto and off one device.
type Transferer interface {
	// Device returns the device this transferer places tensors on.
	Device() tensor.Device
	// Upload returns a copy of the host tensor x placed on Device().
	Upload(x *tensor.RawTensor) (*tensor.RawTensor, error)
	// Download returns a CPU copy of x, which must live on Device().
	Download(x *tensor.RawTensor) (*tensor.RawTensor, error)
}

// Registry maps devices to transferers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[tensor.Device]Transferer
	caster   *cpu.CPUBackend
}

// NewRegistry creates a registry holding only the CPU backend.
func NewRegistry() *Registry {
	host := cpu.New()
	return &Registry{
		backends: map[tensor.Device]Transferer{tensor.CPU: host},
		caster:   host,
	}
}

// Register adds or replaces the transferer for t.Device().
func (r *Registry) Register(t Transferer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[t.Device()] = t
}

// Lookup returns the transferer for d.
func (r *Registry) Lookup(d tensor.Device) (Transferer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.backends[d]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d)
	}
	return t, nil
}

// Devices lists the registered devices in ascending order.
func (r *Registry) Devices() []tensor.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tensor.Device, 0, len(r.backends))
	for d := range r.backends {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, building it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, t := range platformTransferers() {
			defaultRegistry.Register(t)
		}
	})
	return defaultRegistry
}
