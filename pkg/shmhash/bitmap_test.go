package shmhash

import "testing"

func newBitmapRegion(t *testing.T, maxBuckets int32) *region {
	t.Helper()

	maxBucketFlags := (maxBuckets + 63) / 64
	r := &region{buf: make([]byte, headerSize+int(maxBucketFlags)*wordSize)}
	r.setMaxBucketFlags(maxBucketFlags)
	r.setBucketFlagsOffset(headerSize)
	return r
}

func Test_Bitmap_Set_Unset_IsUsed_Round_Trip(t *testing.T) {
	t.Parallel()

	r := newBitmapRegion(t, 128)

	for _, idx := range []int{0, 1, 63, 64, 65, 127} {
		if r.isUsedBucket(idx) {
			t.Fatalf("bucket %d should start clear", idx)
		}
		r.setUsedBucket(idx)
		if !r.isUsedBucket(idx) {
			t.Fatalf("bucket %d should be set after setUsedBucket", idx)
		}
	}

	r.unsetUsedBucket(64)
	if r.isUsedBucket(64) {
		t.Fatal("bucket 64 should be clear after unsetUsedBucket")
	}
	if !r.isUsedBucket(63) || !r.isUsedBucket(65) {
		t.Fatal("unsetUsedBucket must not disturb neighboring bits")
	}
}

func Test_PopCount_Counts_Set_Bits_Across_Words(t *testing.T) {
	t.Parallel()

	r := newBitmapRegion(t, 128)
	set := []int{0, 5, 63, 64, 100, 127}
	for _, idx := range set {
		r.setUsedBucket(idx)
	}

	if got := r.popCount(); got != uint64(len(set)) {
		t.Fatalf("popCount() = %d, want %d", got, len(set))
	}
}

func Test_PopCount64_Matches_Naive_Count(t *testing.T) {
	t.Parallel()

	cases := []uint64{0, 1, 0xFF, 0xFFFFFFFFFFFFFFFF, 0xAAAAAAAAAAAAAAAA, 0x8000000000000001}
	for _, x := range cases {
		want := naivePopCount(x)
		if got := popCount64(x); got != want {
			t.Fatalf("popCount64(%#x) = %d, want %d", x, got, want)
		}
	}
}

func naivePopCount(x uint64) uint64 {
	var n uint64
	for x != 0 {
		n += x & 1
		x >>= 1
	}
	return n
}
