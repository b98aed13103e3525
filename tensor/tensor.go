// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/augment/internal/tensor"
)

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype, device)
}

// FromFloat64s creates a tensor of the given dtype from float64 values.
func FromFloat64s(values []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.FromFloat64s(values, shape, dtype, device)
}

// FromInt64s creates an Int64 tensor.
func FromInt64s(values []int64, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromInt64s(values, shape, device)
}

// ParseDevice parses a device name such as "cpu", "cuda:0" or "webgpu".
func ParseDevice(name string) (Device, error) {
	return tensor.ParseDevice(name)
}

// ParseDataType parses a data type name such as "float32" or "int64".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// ByteSizeOf returns the byte size of a tensor with the given shape and dtype.
func ByteSizeOf(shape Shape, dtype DataType) (int, error) {
	return tensor.ByteSizeOf(shape, dtype)
}

// Allocation errors.
var (
	ErrInvalidDType = tensor.ErrInvalidDType
	ErrTooLarge     = tensor.ErrTooLarge
)
