package shmhash

import "encoding/binary"

// The region's backing bytes are carved up, in order, into:
//
//	[0, headerSize)                    header
//	[bucketFlagsOffset, bucketsOffset)  occupancy bitmap (one bit per bucket)
//	[bucketsOffset, freelistOffset)     bucket table (one uint64 offset per bucket)
//	[freelistOffset, dataOffset)        free-list (one uint64 offset per entry, sorted by size)
//	[dataOffset, memorySize)            data arena (records, append-tail with free-list fallback)
//
// Every multi-byte field is little-endian regardless of host byte order, so
// the layout is portable across machines that might share the mapping.
const (
	headerSize      = 0x40
	headerAlignment = 8
	wordSize        = 8  // width of a bucket/free-list slot and a free-block size word
	recordPrefixSize = 24 // hash (8) + key_size (8) + value_size (8)
)

// Header field byte offsets.
const (
	offMemorySize        = 0x00
	offMaxBucketFlags    = 0x08
	offMaxBuckets        = 0x0C
	offMaxFreeBlocks     = 0x10
	offNumFreeBlocks     = 0x14
	offBucketFlagsOffset = 0x18
	offBucketsOffset     = 0x20
	offFreelistOffset    = 0x28
	offDataOffset        = 0x30
	offDataTail          = 0x38
)

// region is a bounds-checked, offset-addressed view over a backing byte
// slice. It never holds a pointer into the slice; every accessor re-derives
// its position from the header on each call, so a region is safe to use
// regardless of where its backing bytes happen to be mapped.
type region struct {
	buf []byte
}

func (r *region) memorySize() uint64 { return binary.LittleEndian.Uint64(r.buf[offMemorySize:]) }
func (r *region) setMemorySize(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offMemorySize:], v)
}

func (r *region) maxBucketFlags() int32 {
	return int32(binary.LittleEndian.Uint32(r.buf[offMaxBucketFlags:]))
}
func (r *region) setMaxBucketFlags(v int32) {
	binary.LittleEndian.PutUint32(r.buf[offMaxBucketFlags:], uint32(v))
}

func (r *region) maxBuckets() int32 {
	return int32(binary.LittleEndian.Uint32(r.buf[offMaxBuckets:]))
}
func (r *region) setMaxBuckets(v int32) {
	binary.LittleEndian.PutUint32(r.buf[offMaxBuckets:], uint32(v))
}

func (r *region) maxFreeBlocks() int32 {
	return int32(binary.LittleEndian.Uint32(r.buf[offMaxFreeBlocks:]))
}
func (r *region) setMaxFreeBlocks(v int32) {
	binary.LittleEndian.PutUint32(r.buf[offMaxFreeBlocks:], uint32(v))
}

func (r *region) numFreeBlocks() int32 {
	return int32(binary.LittleEndian.Uint32(r.buf[offNumFreeBlocks:]))
}
func (r *region) setNumFreeBlocks(v int32) {
	binary.LittleEndian.PutUint32(r.buf[offNumFreeBlocks:], uint32(v))
}

func (r *region) bucketFlagsOffset() uint64 {
	return binary.LittleEndian.Uint64(r.buf[offBucketFlagsOffset:])
}
func (r *region) setBucketFlagsOffset(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offBucketFlagsOffset:], v)
}

func (r *region) bucketsOffset() uint64 { return binary.LittleEndian.Uint64(r.buf[offBucketsOffset:]) }
func (r *region) setBucketsOffset(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offBucketsOffset:], v)
}

func (r *region) freelistOffset() uint64 {
	return binary.LittleEndian.Uint64(r.buf[offFreelistOffset:])
}
func (r *region) setFreelistOffset(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offFreelistOffset:], v)
}

func (r *region) dataOffset() uint64 { return binary.LittleEndian.Uint64(r.buf[offDataOffset:]) }
func (r *region) setDataOffset(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offDataOffset:], v)
}

func (r *region) dataTail() uint64 { return binary.LittleEndian.Uint64(r.buf[offDataTail:]) }
func (r *region) setDataTail(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[offDataTail:], v)
}

// initHeader lays out a freshly allocated region according to stat, zeroing
// the bitmap, bucket table, and free-list implicitly (the backing memory is
// already zero-filled by the OS primitive that produced it).
func (r *region) initHeader(memorySize uint64, stat Stat) {
	r.setMemorySize(memorySize)
	r.setMaxBucketFlags(stat.MaxBucketFlags)
	r.setMaxBuckets(stat.MaxBuckets)
	r.setMaxFreeBlocks(stat.MaxFreeBlocks)
	r.setNumFreeBlocks(0)

	bucketFlagsOffset := uint64(headerSize)
	bucketsOffset := bucketFlagsOffset + stat.BucketFlagsSize
	freelistOffset := bucketsOffset + stat.BucketsSize
	dataOffset := freelistOffset + stat.FreeBlocksSize

	r.setBucketFlagsOffset(bucketFlagsOffset)
	r.setBucketsOffset(bucketsOffset)
	r.setFreelistOffset(freelistOffset)
	r.setDataOffset(dataOffset)
	r.setDataTail(dataOffset)
}
