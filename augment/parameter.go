// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package augment

import (
	"github.com/born-ml/augment/internal/augment"
)

// Sampler draws random values for a Parameter.
type Sampler = augment.Sampler

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc = augment.SamplerFunc

// Parameter turns a Sampler into tensors of a requested shape.
type Parameter = augment.Parameter

// Built-in samplers.
type (
	ConstantSampler = augment.ConstantSampler
	UniformSampler  = augment.UniformSampler
	NormalSampler   = augment.NormalSampler
	DiscreteSampler = augment.DiscreteSampler
)

// NewParameter creates a Parameter backed by s.
func NewParameter(s Sampler) *Parameter {
	return augment.NewParameter(s)
}

// NewConstantParameter returns a Parameter that always yields value.
func NewConstantParameter(value any) *Parameter {
	return augment.NewConstantParameter(value)
}

// NewUniformParameter returns a Parameter drawing from [low, high). Seed < 0 means random.
func NewUniformParameter(low, high float64, seed int64) (*Parameter, error) {
	return augment.NewUniformParameter(low, high, seed)
}

// NewNormalParameter returns a Parameter drawing from N(mean, std^2). Seed < 0 means random.
func NewNormalParameter(mean, std float64, seed int64) (*Parameter, error) {
	return augment.NewNormalParameter(mean, std, seed)
}

// NewDiscreteParameter returns a Parameter picking from values. Seed < 0 means random.
func NewDiscreteParameter(values []any, replacement bool, seed int64) (*Parameter, error) {
	return augment.NewDiscreteParameter(values, replacement, seed)
}
