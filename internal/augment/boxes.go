package augment

import (
	"fmt"
	"math"

	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/internal/parallel"
	"github.com/born-ml/augment/internal/tensor"
)

// Box is an axis-aligned bounding box.
//
// 2D boxes have 4 entries (min0, min1, max0, max1) and cover [min0, max0) x
// [min1, max1). 3D boxes have 6 entries (min0, min1, max0, max1, min2, max2)
// and are inclusive on every axis.
type Box []int

// SegOptions configures BoxToSeg.
type SegOptions struct {
	// Out receives the labels when set. It must live on the CPU. Shape, DType
	// and Device are ignored in that case.
	Out *tensor.RawTensor

	Shape  tensor.Shape    // Shape of the allocated label map
	DType  tensor.DataType // Element type of the allocated label map (default float32)
	Device tensor.Device   // Device of the allocated label map (default CPU)

	// Registry resolves Device; nil means device.Default().
	Registry *device.Registry
}

// BoxToSeg draws boxes into a label map. Box i (0-based) writes the label i+1
// over its region on the trailing 2 (or 3) axes of the map and over every
// index of the leading axes; later boxes overwrite earlier ones.
//
// Region bounds follow slice semantics: negative bounds count from the end of
// the axis, bounds past the end are clamped, and empty ranges write nothing.
//
// When opts.Out is set the same tensor is returned. A box with a length other
// than 4 or 6 stops the conversion with a *BoxLengthError; boxes before it have
// already been drawn.
func BoxToSeg(boxes []Box, opts SegOptions) (*tensor.RawTensor, error) {
	out := opts.Out
	if out == nil {
		if opts.Shape == nil {
			return nil, fmt.Errorf("box to seg: %w", ErrNoShape)
		}
		var err error
		out, err = tensor.Zeros(opts.Shape, opts.DType, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("box to seg: %w", err)
		}
	} else if out.Device() != tensor.CPU {
		return nil, fmt.Errorf("box to seg: %w (got %s)", ErrNotHost, out.Device())
	}

	for i, box := range boxes {
		ranges, err := boxRegion(box, out.Shape())
		if err != nil {
			if le, ok := err.(*BoxLengthError); ok {
				le.Index = i
			}
			return nil, fmt.Errorf("box to seg: %w", err)
		}
		fillRegion(out, ranges, float64(i+1))
	}

	if opts.Out == nil && opts.Device != tensor.CPU {
		placed, err := device.To(out, device.OnDevice(opts.Device), device.WithRegistry(registryOrDefault(opts.Registry)))
		if err != nil {
			return nil, fmt.Errorf("box to seg: %w", err)
		}
		return placed, nil
	}
	return out, nil
}

// boxRegion returns half-open [lo, hi) ranges for every axis of shape.
func boxRegion(box Box, shape tensor.Shape) ([][2]int, error) {
	var bounds [][2]int
	switch len(box) {
	case 4:
		bounds = [][2]int{{box[0], box[2]}, {box[1], box[3]}}
	case 6:
		bounds = [][2]int{{box[0], box[2] + 1}, {box[1], box[3] + 1}, {box[4], box[5] + 1}}
	default:
		return nil, &BoxLengthError{Length: len(box)}
	}

	if len(shape) < len(bounds) {
		return nil, fmt.Errorf("%w: %d-D box needs at least %d axes, got shape %v", ErrRank, len(bounds), len(bounds), shape)
	}

	lead := len(shape) - len(bounds)
	ranges := make([][2]int, len(shape))
	for i := 0; i < lead; i++ {
		ranges[i] = [2]int{0, shape[i]}
	}
	for j, b := range bounds {
		ranges[lead+j] = sliceBounds(b[0], b[1], shape[lead+j])
	}
	return ranges, nil
}

// sliceBounds normalizes a start:stop slice over an axis of length n.
func sliceBounds(start, stop, n int) [2]int {
	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < 0 {
				return 0
			}
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi := clamp(start), clamp(stop)
	if hi < lo {
		hi = lo
	}
	return [2]int{lo, hi}
}

// fillRegion writes v into every cell of x inside ranges.
func fillRegion(x *tensor.RawTensor, ranges [][2]int, v float64) {
	if len(ranges) == 0 {
		return
	}
	for _, r := range ranges {
		if r[1] <= r[0] {
			return
		}
	}

	strides := x.Strides()
	idx := make([]int, len(ranges))
	for i, r := range ranges {
		idx[i] = r[0]
	}
	last := len(ranges) - 1

	for {
		base := 0
		for i, c := range idx {
			base += c * strides[i]
		}
		for c := 0; c < ranges[last][1]-ranges[last][0]; c++ {
			x.SetFloat64(base+c*strides[last], v)
		}

		// Advance the odometer over the outer axes.
		k := last - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < ranges[k][1] {
				break
			}
			idx[k] = ranges[k][0]
		}
		if k < 0 {
			return
		}
	}
}

// SegToBox computes one bounding box per instance id of a label map.
//
// Ids run from 1 to the largest value in seg. Each box is a float32 tensor of
// length 2*dim on seg's device, laid out as
// (min[-dim], min[-dim+1], max[-dim], max[-dim+1], min[-dim+2], max[-dim+2], ...)
// where min/max are the inclusive extreme coordinates of the id's cells on the
// trailing dim axes. Non-integral values never match an id.
//
// Ids must be contiguous: an id in 1..max without cells fails with a
// *MissingInstanceError rather than being skipped. NaN, infinite or
// out-of-range values fail with ErrBadLabel. An empty map yields no boxes.
func SegToBox(seg *tensor.RawTensor, dim int, opts ...device.Option) ([]*tensor.RawTensor, error) {
	if dim < 2 {
		return nil, fmt.Errorf("seg to box: %w: %d (must be >= 2)", ErrInvalidDim, dim)
	}
	shape := seg.Shape()
	if len(shape) < dim {
		return nil, fmt.Errorf("seg to box: %w: %d spatial axes requested, got shape %v", ErrRank, dim, shape)
	}

	host, err := toHost(seg, opts)
	if err != nil {
		return nil, fmt.Errorf("seg to box: %w", err)
	}

	n := host.NumElements()
	rank := len(shape)
	maxID := 0
	extents := make(map[int]*idExtent)
	coords := make([]int, rank)
	for i := 0; i < n; i++ {
		v := host.Float64At(i)
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxLabel {
			return nil, fmt.Errorf("seg to box: %w: %v at offset %d", ErrBadLabel, v, i)
		}
		if v >= 1 {
			maxID = max(maxID, int(v))
		}
		id, ok := labelID(v, maxLabel)
		if !ok {
			continue
		}
		shape.Unravel(i, coords)
		e := extents[id]
		if e == nil {
			extents[id] = &idExtent{
				min: append([]int(nil), coords...),
				max: append([]int(nil), coords...),
			}
			continue
		}
		for a, c := range coords {
			e.min[a] = min(e.min[a], c)
			e.max[a] = max(e.max[a], c)
		}
	}

	boxes := make([]*tensor.RawTensor, 0, min(maxID, len(extents)))
	first := rank - dim
	for id := 1; id <= maxID; id++ {
		e := extents[id]
		if e == nil {
			return nil, fmt.Errorf("seg to box: %w", &MissingInstanceError{ID: id, Max: maxID})
		}
		values := make([]float64, 0, 2*dim)
		values = append(values,
			float64(e.min[first]), float64(e.min[first+1]),
			float64(e.max[first]), float64(e.max[first+1]))
		for a := first + 2; a < rank; a++ {
			values = append(values, float64(e.min[a]), float64(e.max[a]))
		}

		box, err := tensor.FromFloat64s(values, tensor.Shape{2 * dim}, tensor.Float32, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("seg to box: %w", err)
		}
		if box, err = placeLike(box, seg, opts); err != nil {
			return nil, fmt.Errorf("seg to box: %w", err)
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

// InstanceToSemantic maps an instance label map to class labels: cells with
// instance id k (1-based) get cls[k-1]; background and ids outside 1..len(cls)
// become 0. The result has instance's shape, dtype and device.
//
// Instance ids are expected to be contiguous from 1; this is not validated.
func InstanceToSemantic(instance *tensor.RawTensor, cls []int, opts ...device.Option) (*tensor.RawTensor, error) {
	host, err := toHost(instance, opts)
	if err != nil {
		return nil, fmt.Errorf("instance to semantic: %w", err)
	}

	out := tensor.ZerosLike(host)
	parallel.ForRange(host.NumElements(), func(start, end int) {
		for i := start; i < end; i++ {
			if id, ok := labelID(host.Float64At(i), len(cls)); ok {
				out.SetFloat64(i, float64(cls[id-1]))
			}
		}
	}, parallel.DefaultConfig())

	if out, err = placeLike(out, instance, opts); err != nil {
		return nil, fmt.Errorf("instance to semantic: %w", err)
	}
	return out, nil
}

// maxLabel bounds label magnitudes; larger floats no longer hold exact integers.
const maxLabel = 1 << 53

type idExtent struct {
	min, max []int
}

// labelID returns v as an instance id when it is an integer in 1..maxID.
func labelID(v float64, maxID int) (int, bool) {
	if v < 1 || v > float64(maxID) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// toHost returns x itself when it lives on the CPU, or a CPU copy otherwise.
func toHost(x *tensor.RawTensor, opts []device.Option) (*tensor.RawTensor, error) {
	if x.Device() == tensor.CPU {
		return x, nil
	}
	return device.To(x, append(opts[:len(opts):len(opts)], device.OnDevice(tensor.CPU))...)
}

// placeLike moves a host result onto ref's device.
func placeLike(x, ref *tensor.RawTensor, opts []device.Option) (*tensor.RawTensor, error) {
	if ref.Device() == x.Device() {
		return x, nil
	}
	return device.To(x, append(opts[:len(opts):len(opts)], device.OnDevice(ref.Device()))...)
}

func registryOrDefault(r *device.Registry) *device.Registry {
	if r == nil {
		return device.Default()
	}
	return r
}
