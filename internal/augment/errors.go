package augment

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidBox = errors.New("invalid bounding box")
	ErrNoShape    = errors.New("either an output tensor or a shape is required")
	ErrRank       = errors.New("label map has too few dimensions")
	ErrInvalidDim = errors.New("invalid number of spatial dimensions")
	ErrNotHost    = errors.New("output tensor must live on the CPU")
	ErrNoInstance = errors.New("instance id has no cells")
	ErrBadLabel   = errors.New("label value is not a finite instance id")

	ErrRaggedSample = errors.New("sampled values do not form a regular array")
)

// BoxLengthError reports a box whose length is neither 4 (2D) nor 6 (3D).
type BoxLengthError struct {
	Index  int // Position of the box in the input sequence
	Length int // Offending length
}

// Error implements the error interface.
func (e *BoxLengthError) Error() string {
	return fmt.Sprintf("box %d: boxes must have length 4 (2D) or 6 (3D), found %d", e.Index, e.Length)
}

// Is makes BoxLengthError match ErrInvalidBox.
func (e *BoxLengthError) Is(target error) bool {
	return target == ErrInvalidBox
}

// MissingInstanceError reports an instance id in 1..max that labels no cell.
type MissingInstanceError struct {
	ID  int // Instance id without cells
	Max int // Largest id present in the map
}

// Error implements the error interface.
func (e *MissingInstanceError) Error() string {
	return fmt.Sprintf("instance %d has no cells (ids must be contiguous in 1..%d)", e.ID, e.Max)
}

// Is makes MissingInstanceError match ErrNoInstance.
func (e *MissingInstanceError) Is(target error) bool {
	return target == ErrNoInstance
}
