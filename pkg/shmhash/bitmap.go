package shmhash

import "encoding/binary"

// The occupancy bitmap packs one bit per bucket into 64-bit little-endian
// words. A set bit means the bucket's slot holds a live record; a clear bit
// with a non-zero bucket offset is a tombstone left by Delete, which still
// participates in probe chains so later Insert/Search calls can walk past
// it to reach records inserted after the deletion.

func (r *region) bitmapWord(bucketIndex int) uint64 {
	off := r.bucketFlagsOffset() + uint64(bucketIndex/64)*wordSize
	return binary.LittleEndian.Uint64(r.buf[off:])
}

func (r *region) setBitmapWord(bucketIndex int, word uint64) {
	off := r.bucketFlagsOffset() + uint64(bucketIndex/64)*wordSize
	binary.LittleEndian.PutUint64(r.buf[off:], word)
}

func (r *region) isUsedBucket(bucketIndex int) bool {
	word := r.bitmapWord(bucketIndex)
	return (word>>(uint(bucketIndex)%64))&1 == 1
}

func (r *region) setUsedBucket(bucketIndex int) {
	word := r.bitmapWord(bucketIndex)
	word |= uint64(1) << (uint(bucketIndex) % 64)
	r.setBitmapWord(bucketIndex, word)
}

func (r *region) unsetUsedBucket(bucketIndex int) {
	word := r.bitmapWord(bucketIndex)
	word &^= uint64(1) << (uint(bucketIndex) % 64)
	r.setBitmapWord(bucketIndex, word)
}

// popCount64 counts the set bits of x using shifts, masks, and a single
// multiply, without reaching for math/bits.
func popCount64(x uint64) uint64 {
	x = x - ((x >> 1) & 0x5555555555555555)
	x = (x & 0x3333333333333333) + ((x >> 2) & 0x3333333333333333)
	x = (x + (x >> 4)) & 0x0F0F0F0F0F0F0F0F
	return (x * 0x0101010101010101) >> 56
}

// popCount returns the number of occupied buckets.
func (r *region) popCount() uint64 {
	n := int(r.maxBucketFlags())
	off := r.bucketFlagsOffset()
	var total uint64
	for i := 0; i < n; i++ {
		total += popCount64(binary.LittleEndian.Uint64(r.buf[off+uint64(i)*wordSize:]))
	}
	return total
}
