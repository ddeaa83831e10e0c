// Package sysmem obtains the anonymous, shared backing memory a shmhash
// region is laid out on top of. It is the "external collaborator" the
// region layout itself stays agnostic of: the allocator only ever deals in
// offsets into a []byte, never in how that []byte came to exist.
package sysmem

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Region is a zero-filled block of memory mapped MAP_SHARED|MAP_ANONYMOUS,
// so that, in principle, it can be inherited by a forked child rather than
// only being reachable from the process that created it.
type Region struct {
	buf []byte
	id  uint64
}

var nextID atomic.Uint64

// Allocate reserves size bytes of anonymous shared memory.
func Allocate(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("sysmem: size must be positive, got %d", size)
	}

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("sysmem: mmap: %w", err)
	}

	return &Region{buf: buf, id: nextID.Add(1)}, nil
}

// Bytes returns the mapped memory. The returned slice is valid until
// Release and must not be retained past it.
func (r *Region) Bytes() []byte { return r.buf }

// ID uniquely identifies this mapping for the lifetime of the process, for
// in-process double-attach detection.
func (r *Region) ID() uint64 { return r.id }

// Release unmaps the backing memory. It is an error to call Release more
// than once.
func (r *Region) Release() error {
	if r.buf == nil {
		return fmt.Errorf("sysmem: region already released")
	}

	buf := r.buf
	r.buf = nil
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("sysmem: munmap: %w", err)
	}
	return nil
}
