//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend, which keeps tensors resident in
// GPU buffers.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    registry := device.NewRegistry()
//	    registry.Register(gpu)
//	}
package webgpu

import (
	"github.com/born-ml/augment/device"
	internalwebgpu "github.com/born-ml/augment/internal/backend/webgpu"
)

// Backend represents the WebGPU backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements device.Transferer.
var _ device.Transferer = (*Backend)(nil)

// New creates a new WebGPU backend. Call Release() when done to free GPU
// resources. Returns an error if no compatible GPU is found.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
