// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device moves tensors between host memory and accelerator backends
// and changes their element type.
//
// Example:
//
//	gpu, err := device.To(x, device.OnDevice(tensor.WebGPU), device.AsType(tensor.Float32))
//	back, err := device.To(gpu, device.Like(x))
package device

import (
	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/tensor"
)

// ErrDeviceUnavailable is returned when no backend serves a device.
var ErrDeviceUnavailable = device.ErrDeviceUnavailable

// Transferer moves tensors between host memory and one device.
type Transferer = device.Transferer

// Registry maps devices to the backends serving them.
type Registry = device.Registry

// Option configures a placement.
type Option = device.Option

// NewRegistry returns a registry serving only the CPU.
func NewRegistry() *Registry {
	return device.NewRegistry()
}

// Default returns the process-wide registry: the CPU plus every accelerator
// backend that initializes on this machine.
func Default() *Registry {
	return device.Default()
}

// To places x according to opts.
func To(x *tensor.RawTensor, opts ...Option) (*tensor.RawTensor, error) {
	return device.To(x, opts...)
}

// OnDevice selects the target device.
func OnDevice(d tensor.Device) Option { return device.OnDevice(d) }

// AsType selects the target element type.
func AsType(dt tensor.DataType) Option { return device.AsType(dt) }

// Like takes the device and element type of x, overriding OnDevice and AsType.
func Like(x *tensor.RawTensor) Option { return device.Like(x) }

// PinDevice sets the target device with precedence over Like and OnDevice.
func PinDevice(d tensor.Device) Option { return device.PinDevice(d) }

// Copy forces a fresh buffer even when nothing changes.
func Copy() Option { return device.Copy() }

// WithRegistry resolves devices through r instead of Default().
func WithRegistry(r *Registry) Option { return device.WithRegistry(r) }
