// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host-memory backend.
//
// The CPU backend serves tensors tagged with tensor.CPU and implements the
// element type conversions used by device placement:
//
//	b := cpu.New()
//	f, err := b.Cast(labels, tensor.Float32)
package cpu
