package shmhash

import (
	"bytes"
	"encoding/binary"
)

func (r *region) bucketAt(i int) uint64 {
	off := r.bucketsOffset() + uint64(i)*wordSize
	return binary.LittleEndian.Uint64(r.buf[off:])
}

func (r *region) setBucketAt(i int, recordOffset uint64) {
	off := r.bucketsOffset() + uint64(i)*wordSize
	binary.LittleEndian.PutUint64(r.buf[off:], recordOffset)
}

// probeResult is the outcome of walking a key's probe sequence.
type probeResult struct {
	// bucketIndex is the slot the record occupies (if found) or the
	// earliest tombstone/empty slot an Insert should reuse (if not
	// found). It equals maxBuckets when the walk visits every bucket
	// without reaching an empty one, even if it passed a tombstone.
	bucketIndex  int
	recordOffset uint64
	found        bool
}

// probe walks key's linear probe sequence: starting at hash % maxBuckets and
// advancing by one, it stops at the first empty bucket (offset zero), at a
// bucket holding an equal key, or after visiting every bucket once.
// Tombstones do not stop the walk, but the first tombstone seen along the
// way is remembered as the reuse candidate for a subsequent Insert. That
// candidate is reported only when the walk ends at an empty bucket; a walk
// that visits every bucket reports no candidate.
func (r *region) probe(key []byte) probeResult {
	maxBuckets := int(r.maxBuckets())
	hash := djb2Hash(key)
	start := int(hash % uint64(maxBuckets))

	candidate := maxBuckets
	haveCandidate := false

	for i := 0; i < maxBuckets; i++ {
		idx := (start + i) % maxBuckets
		offset := r.bucketAt(idx)

		if offset == 0 {
			if !haveCandidate {
				candidate = idx
			}
			return probeResult{bucketIndex: candidate, found: false}
		}

		if r.isUsedBucket(idx) {
			rec := r.recordAt(offset)
			if rec.hash == hash && rec.keySize == uint64(len(key)) &&
				bytes.Equal(r.recordKey(offset, rec), key) {
				return probeResult{bucketIndex: idx, recordOffset: offset, found: true}
			}
		} else if !haveCandidate {
			candidate = idx
			haveCandidate = true
		}
	}

	return probeResult{bucketIndex: maxBuckets, found: false}
}
