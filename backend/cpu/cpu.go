// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/augment/device"
	internalcpu "github.com/born-ml/augment/internal/backend/cpu"
)

// Backend represents the CPU backend: host memory transfers and dtype casts.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements device.Transferer.
var _ device.Transferer = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
