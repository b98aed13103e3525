// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the tensor types shared by the augmentation helpers.
//
// # Overview
//
// A RawTensor is a flat, reference-counted byte buffer with a shape, an element
// type and a device tag. Tensors on the CPU can be read and written through
// typed views:
//
//	seg, _ := tensor.Zeros(tensor.Shape{4, 4}, tensor.Int64, tensor.CPU)
//	labels := seg.AsInt64() // zero-copy view
//	labels[0] = 1
//
// # Supported Data Types
//
//   - Float32, Float64 (floating-point)
//   - Int32, Int64 (signed integers)
//   - Uint8 (unsigned 8-bit)
//   - Bool
//
// # Devices
//
// CPU tensors live in host memory. Tensors tagged with an accelerator device
// are produced by the device package, which moves data between host memory and
// the registered backends.
package tensor
