package tensor

import (
	"fmt"
	"strings"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// ParseDevice parses a device name such as "cpu" or "webgpu" (case-insensitive).
// A trailing ordinal ("cuda:0") is ignored.
func ParseDevice(name string) (Device, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, ':'); i >= 0 {
		n = n[:i]
	}
	switch n {
	case "cpu":
		return CPU, nil
	case "cuda", "gpu":
		return CUDA, nil
	case "vulkan":
		return Vulkan, nil
	case "metal", "mps":
		return Metal, nil
	case "webgpu", "wgpu":
		return WebGPU, nil
	default:
		return 0, fmt.Errorf("unknown device %q", name)
	}
}
