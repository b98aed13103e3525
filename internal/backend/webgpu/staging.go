//go:build windows

package webgpu

import (
	"math/bits"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxStagingPerClass bounds the idle staging buffers kept per size class.
const maxStagingPerClass = 8

// stagingPool reuses map-read staging buffers between downloads. Buffers are
// grouped by size rounded up to a power of two.
type stagingPool struct {
	mu      sync.Mutex
	idle    map[uint64][]*wgpu.Buffer
	hits    uint64
	misses  uint64
	created uint64
}

func newStagingPool() *stagingPool {
	return &stagingPool{idle: make(map[uint64][]*wgpu.Buffer)}
}

// sizeClass rounds size up to a power of two (minimum 256 bytes).
func sizeClass(size uint64) uint64 {
	if size <= 256 {
		return 256
	}
	return 1 << bits.Len64(size-1)
}

// acquire returns an idle staging buffer of at least size bytes or creates one.
func (p *stagingPool) acquire(device *wgpu.Device, size uint64) (*wgpu.Buffer, uint64) {
	class := sizeClass(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if free := p.idle[class]; len(free) > 0 {
		buffer := free[len(free)-1]
		p.idle[class] = free[:len(free)-1]
		p.hits++
		return buffer, class
	}

	p.misses++
	p.created++
	return device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  class,
	}), class
}

// release returns an unmapped staging buffer to the pool.
func (p *stagingPool) release(buffer *wgpu.Buffer, class uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle[class]) >= maxStagingPerClass {
		buffer.Release()
		return
	}
	p.idle[class] = append(p.idle[class], buffer)
}

// clear releases every idle buffer.
func (p *stagingPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class, free := range p.idle {
		for _, buffer := range free {
			buffer.Release()
		}
		delete(p.idle, class)
	}
}

// stats returns pool hits, misses and the number of idle buffers.
func (p *stagingPool) stats() (hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, free := range p.idle {
		idle += len(free)
	}
	return p.hits, p.misses, idle
}
