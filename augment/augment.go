// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package augment provides the building blocks of a data-augmentation
// pipeline for images and volumes.
//
// # Overview
//
//   - ToDevice relocates every tensor in a nested batch (maps, slices, arrays).
//   - BoxToSeg, SegToBox and InstanceToSemantic convert between bounding boxes,
//     instance label maps and semantic label maps.
//   - Parameter draws random transform parameters of any shape from a Sampler.
//
// # Example
//
//	seg, err := augment.BoxToSeg([]augment.Box{{0, 0, 2, 2}}, augment.SegOptions{
//	    Shape: tensor.Shape{4, 4},
//	    DType: tensor.Int64,
//	})
//	boxes, err := augment.SegToBox(seg, 2)
//
//	angle, _ := augment.NewUniformParameter(-0.5, 0.5, 42)
//	theta, err := angle.Forward(tensor.Shape{8}, device.Like(seg))
package augment

import (
	"github.com/born-ml/augment/device"
	"github.com/born-ml/augment/internal/augment"
	"github.com/born-ml/augment/tensor"
)

// Errors returned by the conversions.
var (
	ErrInvalidBox = augment.ErrInvalidBox
	ErrNoShape    = augment.ErrNoShape
	ErrRank       = augment.ErrRank
	ErrInvalidDim = augment.ErrInvalidDim
	ErrNotHost    = augment.ErrNotHost
	ErrNoInstance = augment.ErrNoInstance
	ErrBadLabel   = augment.ErrBadLabel

	// ErrRaggedSample is returned by Parameter.Forward for uneven nested samples.
	ErrRaggedSample = augment.ErrRaggedSample
)

// BoxLengthError reports a box that is neither 2D nor 3D.
type BoxLengthError = augment.BoxLengthError

// MissingInstanceError reports an instance id without cells.
type MissingInstanceError = augment.MissingInstanceError

// Variant classifies values for ToDevice.
type Variant = augment.Variant

// Value variants.
const (
	Opaque   Variant = augment.Opaque
	Tensor   Variant = augment.Tensor
	Sequence Variant = augment.Sequence
	Mapping  Variant = augment.Mapping
)

// Classify returns the variant of data.
func Classify(data any) Variant {
	return augment.Classify(data)
}

// ToDevice relocates every tensor reachable through maps, slices and arrays in
// data to dev, leaving other values untouched.
func ToDevice(data any, dev tensor.Device, opts ...device.Option) (any, error) {
	return augment.ToDevice(data, dev, opts...)
}

// Box is an axis-aligned bounding box of length 4 (2D) or 6 (3D).
type Box = augment.Box

// SegOptions configures BoxToSeg.
type SegOptions = augment.SegOptions

// BoxToSeg draws boxes into a label map; box i gets the label i+1.
func BoxToSeg(boxes []Box, opts SegOptions) (*tensor.RawTensor, error) {
	return augment.BoxToSeg(boxes, opts)
}

// SegToBox computes one float32 bounding box per instance id of seg.
func SegToBox(seg *tensor.RawTensor, dim int, opts ...device.Option) ([]*tensor.RawTensor, error) {
	return augment.SegToBox(seg, dim, opts...)
}

// InstanceToSemantic maps instance id k to the class cls[k-1].
func InstanceToSemantic(instance *tensor.RawTensor, cls []int, opts ...device.Option) (*tensor.RawTensor, error) {
	return augment.InstanceToSemantic(instance, cls, opts...)
}
