package shmhash

import "encoding/binary"

// The free-list is a sequence of (offset, size) pairs, stored as an array of
// offsets sorted by ascending size; the size for a given offset is stored as
// a single word at that offset in the data arena itself, so a reclaimed
// extent always carries its own size with it.

func (r *region) freelistAt(i int) uint64 {
	off := r.freelistOffset() + uint64(i)*wordSize
	return binary.LittleEndian.Uint64(r.buf[off:])
}

func (r *region) setFreelistAt(i int, offset uint64) {
	off := r.freelistOffset() + uint64(i)*wordSize
	binary.LittleEndian.PutUint64(r.buf[off:], offset)
}

func (r *region) blockSizeAt(offset uint64) uint64 {
	return binary.LittleEndian.Uint64(r.buf[offset:])
}

func (r *region) setBlockSizeAt(offset, size uint64) {
	binary.LittleEndian.PutUint64(r.buf[offset:], size)
}

// addFreeBlock inserts a reclaimed extent of size bytes at offset into the
// free-list, keeping the list sorted by size. If the new extent is
// immediately followed in memory by the list's best-fit neighbor by size,
// the two are merged into one block and the list is re-sorted locally
// ("bubbled") to restore order; this is a forward-only coalesce; a free
// block immediately preceding offset is never merged backward.
//
// Callers must have already confirmed r.numFreeBlocks() < r.maxFreeBlocks()
// (e.g. via the public operation's own check) before calling; addFreeBlock
// re-checks this as a safety net and returns ErrNoEmptyFreeBlock rather than
// corrupting the list if it is violated.
func (r *region) addFreeBlock(offset, size uint64) error {
	if uint64(r.numFreeBlocks()) >= uint64(r.maxFreeBlocks()) {
		return ErrNoEmptyFreeBlock
	}
	// size must be able to hold its own size word once reclaimed.
	size += wordSize

	n := int(r.numFreeBlocks())
	left := 0
	if n > 0 {
		right := n - 1
		for left <= right {
			mid := (left + right) / 2
			blockOffset := r.freelistAt(mid)
			blockSize := r.blockSizeAt(blockOffset)
			if blockSize < size {
				left = mid + 1
			} else {
				right = mid - 1
			}
		}

		if left < n && offset+size == r.freelistAt(left) {
			merged := size + r.blockSizeAt(r.freelistAt(left))
			r.setFreelistAt(left, offset)
			r.setBlockSizeAt(offset, merged)

			for i := left; i < n-1; i++ {
				nextOffset := r.freelistAt(i + 1)
				nextSize := r.blockSizeAt(nextOffset)
				if nextSize < merged {
					r.setFreelistAt(i, nextOffset)
					r.setFreelistAt(i+1, offset)
					continue
				}
				break
			}
			return nil
		}

		for i := n - 1; i >= left; i-- {
			r.setFreelistAt(i+1, r.freelistAt(i))
		}
	}

	r.setFreelistAt(left, offset)
	r.setBlockSizeAt(offset, size)
	r.setNumFreeBlocks(int32(n + 1))
	return nil
}

func (r *region) removeFreeBlock(idx int) {
	n := int(r.numFreeBlocks())
	for i := idx; i < n-1; i++ {
		r.setFreelistAt(i, r.freelistAt(i+1))
	}
	r.setNumFreeBlocks(int32(n - 1))
}

// findFreeBlock locates a best-fit block for a required number of bytes: an
// exact match is removed and returned whole; a larger block is split, with
// the tail re-inserted as a new free block, unless the remainder would be
// too small to hold its own size word or the free-list has no room for the
// split-off remainder, in which case the block is left untouched and the
// search reports no match.
func (r *region) findFreeBlock(required uint64) (uint64, bool) {
	n := int(r.numFreeBlocks())
	if n == 0 {
		return 0, false
	}

	left, right := 0, n-1
	for left <= right {
		mid := (left + right) / 2
		offset := r.freelistAt(mid)
		blockSize := r.blockSizeAt(offset)
		switch {
		case blockSize == required:
			r.removeFreeBlock(mid)
			return offset, true
		case blockSize > required:
			right = mid - 1
		default:
			left = mid + 1
		}
	}

	if left < n {
		offset := r.freelistAt(left)
		blockSize := r.blockSizeAt(offset)
		remaining := blockSize - required

		switch {
		case remaining == 0:
			r.removeFreeBlock(left)
			return offset, true
		case remaining < wordSize || uint64(r.numFreeBlocks()) == uint64(r.maxFreeBlocks()):
			return 0, false
		default:
			r.removeFreeBlock(left)
			_ = r.addFreeBlock(offset+required, remaining-wordSize)
			return offset, true
		}
	}

	return 0, false
}
