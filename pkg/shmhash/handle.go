package shmhash

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/regioncache/shmhash/internal/sysmem"
)

// backing is the subset of sysmem.Region a Handle depends on, narrowed so
// that tests can attach two Handles to the same in-memory bytes without
// going through a real mmap.
type backing interface {
	Bytes() []byte
	ID() uint64
	Release() error
}

// Handle is a live, open region. The zero Handle is not usable; obtain one
// with Init.
type Handle struct {
	mu        sync.RWMutex
	backing   backing
	reg       region
	lockFile  *os.File
	destroyed bool
}

// Init reserves a new region sized per cfg and lays out its header, bucket
// table, free-list, and data arena. The returned Handle owns the backing
// memory and must eventually be passed to Destroy.
func Init(cfg Config) (*Handle, error) {
	stat, err := CalcRequired(cfg.MemorySize, cfg.MaxBuckets, cfg.MaxFreeBlocks, 0)
	if err != nil {
		return nil, err
	}
	if cfg.MemorySize < stat.MemorySize {
		return nil, ErrTooSmall
	}
	memSize := alignUp8(cfg.MemorySize)

	b, err := sysmem.Allocate(int(memSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}

	return newHandle(cfg, b, memSize, stat)
}

// newHandle wires a Handle around an already-allocated backing, laying out
// its header fresh. It is split out from Init so tests can exercise the
// attach-registry's double-attach detection against a fake backing without
// a real OS mapping.
func newHandle(cfg Config, b backing, memSize uint64, stat Stat) (*Handle, error) {
	if err := registerBacking(b.ID()); err != nil {
		return nil, err
	}

	h := &Handle{backing: b, reg: region{buf: b.Bytes()}}
	h.reg.initHeader(memSize, stat)

	if cfg.LockPath != "" {
		f, err := os.OpenFile(cfg.LockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			releaseBacking(b.ID())
			return nil, fmt.Errorf("%w: %v", ErrLockFailed, err)
		}
		h.lockFile = f
	}

	return h, nil
}

// Destroy releases the region's backing memory and, if configured, closes
// its companion lock file. It is safe to call more than once.
func (h *Handle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		return nil
	}
	h.destroyed = true

	releaseBacking(h.backing.ID())
	if h.lockFile != nil {
		_ = h.lockFile.Close()
	}
	// Best-effort: an unmap failure here does not leave the handle in a
	// usable state either way.
	_ = h.backing.Release()
	return nil
}

func (h *Handle) withWriteLock(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		return ErrLockFailed
	}
	if h.lockFile != nil {
		if err := unix.Flock(int(h.lockFile.Fd()), unix.LOCK_EX); err != nil {
			return ErrLockFailed
		}
		defer unix.Flock(int(h.lockFile.Fd()), unix.LOCK_UN)
	}
	return fn()
}

func (h *Handle) withReadLock(fn func() error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.destroyed {
		return ErrLockFailed
	}
	if h.lockFile != nil {
		if err := unix.Flock(int(h.lockFile.Fd()), unix.LOCK_SH); err != nil {
			return ErrLockFailed
		}
		defer unix.Flock(int(h.lockFile.Fd()), unix.LOCK_UN)
	}
	return fn()
}

// Insert stores value under key, overwriting any existing value for that
// key in place when the new value is the same size, or reclaiming the old
// record's space via the free-list otherwise.
func (h *Handle) Insert(key, value []byte) error {
	return h.withWriteLock(func() error {
		pr := h.reg.probe(key)
		if !pr.found && pr.bucketIndex == int(h.reg.maxBuckets()) {
			return ErrNoEmptyBucket
		}

		if pr.found {
			rec := h.reg.recordAt(pr.recordOffset)
			if rec.valueSize == uint64(len(value)) {
				copy(h.reg.recordValue(pr.recordOffset, rec), value)
				return nil
			}
			if uint64(h.reg.numFreeBlocks()) >= uint64(h.reg.maxFreeBlocks()) {
				return ErrNoEmptyFreeBlock
			}
			oldExtent := recordExtent(rec.keySize, rec.valueSize)
			if err := h.reg.addFreeBlock(pr.recordOffset, oldExtent); err != nil {
				return err
			}
		}

		required := recordExtent(uint64(len(key)), uint64(len(value)))
		offset, fromTail, err := h.reg.allocate(required)
		if err != nil {
			return err
		}

		hash := djb2Hash(key)
		h.reg.writeRecord(offset, hash, uint64(len(key)), uint64(len(value)), key, value)
		h.reg.setBucketAt(pr.bucketIndex, offset)
		h.reg.setUsedBucket(pr.bucketIndex)
		if fromTail {
			h.reg.setDataTail(offset + required)
		}
		return nil
	})
}

// Delete removes the record stored under key, reclaiming its space via the
// free-list and leaving a tombstone behind so later probes can still reach
// records inserted after it.
func (h *Handle) Delete(key []byte) error {
	return h.withWriteLock(func() error {
		pr := h.reg.probe(key)
		if !pr.found {
			return ErrNotFound
		}
		if uint64(h.reg.numFreeBlocks()) >= uint64(h.reg.maxFreeBlocks()) {
			return ErrNoEmptyFreeBlock
		}

		rec := h.reg.recordAt(pr.recordOffset)
		extent := recordExtent(rec.keySize, rec.valueSize)
		if err := h.reg.addFreeBlock(pr.recordOffset, extent); err != nil {
			return err
		}
		h.reg.unsetUsedBucket(pr.bucketIndex)
		return nil
	})
}

// Search returns a copy of the value stored under key.
func (h *Handle) Search(key []byte) ([]byte, error) {
	var out []byte
	err := h.withReadLock(func() error {
		pr := h.reg.probe(key)
		if !pr.found {
			return ErrNotFound
		}
		rec := h.reg.recordAt(pr.recordOffset)
		out = append([]byte(nil), h.reg.recordValue(pr.recordOffset, rec)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stat reports the region's layout and current occupancy.
func (h *Handle) Stat() (Stat, error) {
	var s Stat
	err := h.withReadLock(func() error {
		s = Stat{
			MemorySize:       h.reg.memorySize(),
			MaxBucketFlags:   h.reg.maxBucketFlags(),
			MaxBuckets:       h.reg.maxBuckets(),
			MaxFreeBlocks:    h.reg.maxFreeBlocks(),
			BucketFlagsSize:  uint64(h.reg.maxBucketFlags()) * wordSize,
			BucketsSize:      uint64(h.reg.maxBuckets()) * wordSize,
			FreeBlocksSize:   uint64(h.reg.maxFreeBlocks()) * wordSize,
			HeaderSize:       headerSize,
			DataSize:         h.reg.memorySize() - h.reg.dataOffset(),
			RecordHeaderSize: recordPrefixSize + 2,
			UsedBuckets:      h.reg.popCount(),
			UsedFreeBlocks:   uint64(h.reg.numFreeBlocks()),
			UsedDataSize:     h.reg.dataTail() - h.reg.dataOffset(),
		}
		return nil
	})
	return s, err
}
