package device

import (
	"fmt"

	"github.com/born-ml/augment/internal/tensor"
)

// Option configures a relocation. Options are the forwarded keyword arguments
// of a move: unset attributes are left unchanged.
type Option func(*placement)

type placement struct {
	device    tensor.Device
	hasDevice bool
	dtype     tensor.DataType
	hasDType  bool
	like      *tensor.RawTensor
	copy      bool
	registry  *Registry

	pinned    tensor.Device
	hasPinned bool
}

// OnDevice sets the target device.
func OnDevice(d tensor.Device) Option {
	return func(p *placement) {
		p.device = d
		p.hasDevice = true
	}
}

// AsType sets the target dtype.
func AsType(dt tensor.DataType) Option {
	return func(p *placement) {
		p.dtype = dt
		p.hasDType = true
	}
}

// Like targets x's device and dtype. It takes precedence over OnDevice and
// AsType regardless of option order. A nil x is ignored.
func Like(x *tensor.RawTensor) Option {
	return func(p *placement) {
		if x != nil {
			p.like = x
		}
	}
}

// PinDevice sets the target device with precedence over both Like and
// OnDevice. The dtype still comes from Like or AsType.
func PinDevice(d tensor.Device) Option {
	return func(p *placement) {
		p.pinned = d
		p.hasPinned = true
	}
}

// Copy forces a fresh tensor even when device and dtype already match.
func Copy() Option {
	return func(p *placement) {
		p.copy = true
	}
}

// WithRegistry resolves devices through r instead of Default().
func WithRegistry(r *Registry) Option {
	return func(p *placement) {
		p.registry = r
	}
}

func newPlacement(opts []Option) *placement {
	p := &placement{}
	for _, opt := range opts {
		opt(p)
	}
	if p.like != nil {
		p.device, p.hasDevice = p.like.Device(), true
		p.dtype, p.hasDType = p.like.DType(), true
	}
	if p.hasPinned {
		p.device, p.hasDevice = p.pinned, true
	}
	if p.registry == nil {
		p.registry = Default()
	}
	return p
}

// To relocates x according to opts and returns the result.
//
// When neither device nor dtype changes and Copy is not given, x itself is
// returned. Otherwise the data is downloaded to the host, cast, and uploaded to
// the target device.
func To(x *tensor.RawTensor, opts ...Option) (*tensor.RawTensor, error) {
	p := newPlacement(opts)
	return p.registry.to(x, p)
}

// To relocates x through this registry. See the package-level To.
func (r *Registry) To(x *tensor.RawTensor, opts ...Option) (*tensor.RawTensor, error) {
	p := newPlacement(append(opts, WithRegistry(r)))
	return r.to(x, p)
}

func (r *Registry) to(x *tensor.RawTensor, p *placement) (*tensor.RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("to: nil tensor")
	}

	targetDevice := x.Device()
	if p.hasDevice {
		targetDevice = p.device
	}
	targetDType := x.DType()
	if p.hasDType {
		targetDType = p.dtype
	}

	if targetDevice == x.Device() && targetDType == x.DType() && !p.copy {
		return x, nil
	}

	host := x
	if x.Device() != tensor.CPU {
		src, err := r.Lookup(x.Device())
		if err != nil {
			return nil, fmt.Errorf("to %s: %w", targetDevice, err)
		}
		if host, err = src.Download(x); err != nil {
			return nil, fmt.Errorf("to %s: download from %s: %w", targetDevice, x.Device(), err)
		}
	}

	host, err := r.caster.Cast(host, targetDType)
	if err != nil {
		return nil, fmt.Errorf("to %s: %w", targetDType, err)
	}

	if targetDevice == tensor.CPU {
		if host == x {
			return x.Copy(tensor.CPU), nil
		}
		return host, nil
	}

	dst, err := r.Lookup(targetDevice)
	if err != nil {
		return nil, fmt.Errorf("to %s: %w", targetDevice, err)
	}
	moved, err := dst.Upload(host)
	if err != nil {
		return nil, fmt.Errorf("to %s: upload: %w", targetDevice, err)
	}
	return moved, nil
}
