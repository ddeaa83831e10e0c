package shmhash

import "math"

// Config describes the fixed-capacity region to create in Init.
type Config struct {
	// MemorySize is the total number of bytes to reserve for the region,
	// including the header, bucket table, free-list, and data arena. It
	// is rounded up to an 8-byte boundary. Pass the value returned by
	// CalcRequired's Stat.MemorySize, or larger, to leave slack in the
	// data arena.
	MemorySize uint64

	// MaxBuckets is the size of the open-addressed bucket table. If zero,
	// it is derived from MemorySize (see CalcRequired).
	MaxBuckets uint64

	// MaxFreeBlocks bounds how many reclaimed extents the free-list can
	// track at once. If zero, it defaults to MaxBuckets.
	MaxFreeBlocks uint64

	// LockPath, if non-empty, names a file used as a companion advisory
	// lock (flock) around every mutating and read operation, so that
	// writers attached to the same backing region from different
	// processes still serialize with each other. It is not needed for
	// single-process use.
	LockPath string
}

// Stat reports the structural layout and current occupancy of a region.
type Stat struct {
	MemorySize     uint64
	MaxBucketFlags int32
	MaxBuckets     int32
	MaxFreeBlocks  int32

	BucketFlagsSize uint64
	BucketsSize     uint64
	FreeBlocksSize  uint64
	HeaderSize      uint64
	DataSize        uint64

	RecordHeaderSize uint64
	RecordSize       uint64

	UsedBuckets    uint64
	UsedFreeBlocks uint64
	UsedDataSize   uint64
}

// alignUp8 rounds size up to the next multiple of 8, matching the region's
// natural word alignment.
func alignUp8(size uint64) uint64 {
	const align = uint64(headerAlignment)
	return (size + align - 1) &^ (align - 1)
}

// CalcRequired computes the layout a region would have for the given
// parameters, without allocating anything. Pass recordKVSize to estimate
// memorySize from an expected average key+value size instead of supplying
// memorySize directly.
//
// At least one of memorySize or maxBuckets must be non-zero.
func CalcRequired(memorySize, maxBuckets, maxFreeBlocks, recordKVSize uint64) (Stat, error) {
	if maxBuckets == 0 {
		if memorySize == 0 {
			return Stat{}, ErrTooSmall
		}
		maxBuckets = (memorySize / 4) / wordSize
	}
	if maxFreeBlocks == 0 {
		maxFreeBlocks = maxBuckets
	}
	if maxBuckets > math.MaxInt32 || maxFreeBlocks > math.MaxInt32 {
		return Stat{}, ErrTooSmall
	}

	var s Stat
	s.MaxBucketFlags = int32((maxBuckets + 63) / 64)
	s.MaxBuckets = int32(maxBuckets)
	s.MaxFreeBlocks = int32(maxFreeBlocks)

	s.BucketFlagsSize = uint64(s.MaxBucketFlags) * wordSize
	s.BucketsSize = maxBuckets * wordSize
	s.FreeBlocksSize = maxFreeBlocks * wordSize
	s.HeaderSize = headerSize
	s.MemorySize = s.HeaderSize + s.BucketFlagsSize + s.BucketsSize + s.FreeBlocksSize

	s.RecordHeaderSize = recordPrefixSize + 2
	if recordKVSize != 0 {
		s.RecordSize = s.RecordHeaderSize + recordKVSize
		s.DataSize = s.RecordSize * maxBuckets
		s.MemorySize += s.DataSize
	}

	if memorySize != 0 {
		s.RecordSize = 0
		s.DataSize = 0
		if memorySize > s.MemorySize {
			s.DataSize = memorySize - s.MemorySize
			s.RecordSize = s.DataSize / s.RecordHeaderSize
		}
	}
	s.MemorySize = alignUp8(s.MemorySize)

	return s, nil
}
