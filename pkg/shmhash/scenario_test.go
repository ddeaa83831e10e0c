package shmhash

import (
	"fmt"
	"testing"
)

// These tests transcribe the concrete scenarios into executable checks,
// each scenario getting its own function so a failure names exactly which
// one broke.

func TestScenario_InitMinimum(t *testing.T) {
	t.Parallel()

	stat, err := CalcRequired(0, 4, 4, 0)
	if err != nil {
		t.Fatalf("CalcRequired: %v", err)
	}

	if _, err := Init(Config{MemorySize: stat.MemorySize - 1, MaxBuckets: 4, MaxFreeBlocks: 4}); err != ErrTooSmall {
		t.Fatalf("Init(M-1) error = %v, want ErrTooSmall", err)
	}

	h, err := Init(Config{MemorySize: stat.MemorySize, MaxBuckets: 4, MaxFreeBlocks: 4})
	if err != nil {
		t.Fatalf("Init(M): %v", err)
	}
	defer h.Destroy()

	s, err := h.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if s.UsedBuckets != 0 {
		t.Fatalf("UsedBuckets = %d, want 0", s.UsedBuckets)
	}
}

func TestScenario_InsertSearchOverwriteSameSize(t *testing.T) {
	t.Parallel()

	h := newScenarioHandle(t, 1<<16, 64, 32)

	mustInsert(t, h, "abc", "XY")
	mustSearchEquals(t, h, "abc", "XY")

	mustInsert(t, h, "abc", "ZW")
	s, err := h.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if s.UsedFreeBlocks != 0 {
		t.Fatalf("UsedFreeBlocks = %d, want 0 after a same-size overwrite", s.UsedFreeBlocks)
	}
	mustSearchEquals(t, h, "abc", "ZW")
}

func TestScenario_OverwriteDifferentSizeTriggersFreeAndAlloc(t *testing.T) {
	t.Parallel()

	h := newScenarioHandle(t, 1<<16, 64, 32)

	mustInsert(t, h, "abc", "XY")
	before, err := h.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	mustInsert(t, h, "abc", "longer")
	mustSearchEquals(t, h, "abc", "longer")

	after, err := h.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if after.UsedFreeBlocks != before.UsedFreeBlocks+1 {
		t.Fatalf("UsedFreeBlocks = %d, want %d (+1 for the reclaimed 2-byte record)", after.UsedFreeBlocks, before.UsedFreeBlocks+1)
	}
}

func TestScenario_DeleteThenReinsertReusesTombstoneSlot(t *testing.T) {
	t.Parallel()

	h := newScenarioHandle(t, 1<<16, 64, 32)

	mustInsert(t, h, "k", "v")
	if err := h.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.Search([]byte("k")); err != ErrNotFound {
		t.Fatalf("Search after delete = %v, want ErrNotFound", err)
	}

	mustInsert(t, h, "k", "v2")
	mustSearchEquals(t, h, "k", "v2")
}

func TestScenario_CollisionChainSurvivesTombstone(t *testing.T) {
	t.Parallel()

	const maxBuckets = 8
	keyA, keyB := findColliding(t, maxBuckets)

	h := newScenarioHandle(t, 1<<16, maxBuckets, maxBuckets)

	mustInsert(t, h, keyA, "vA")
	mustInsert(t, h, keyB, "vB")
	mustSearchEquals(t, h, keyB, "vB")

	if err := h.Delete([]byte(keyA)); err != nil {
		t.Fatalf("Delete(A): %v", err)
	}
	mustSearchEquals(t, h, keyB, "vB")
}

func TestScenario_FreeListFullOnDelete(t *testing.T) {
	t.Parallel()

	h := newScenarioHandle(t, 1<<16, 64, 1)

	mustInsert(t, h, "k1", "v1")
	mustInsert(t, h, "k2", "v2")
	mustInsert(t, h, "k3", "v3")

	if err := h.Delete([]byte("k1")); err != nil {
		t.Fatalf("Delete(k1): %v", err)
	}
	if err := h.Delete([]byte("k2")); err != ErrNoEmptyFreeBlock {
		t.Fatalf("Delete(k2) = %v, want ErrNoEmptyFreeBlock", err)
	}
	mustSearchEquals(t, h, "k2", "v2")
}

func TestScenario_AllocatorSplitUnusableReturnsNoSpace(t *testing.T) {
	t.Parallel()

	const maxBuckets, maxFreeBlocks = 8, 4
	stat, err := CalcRequired(0, maxBuckets, maxFreeBlocks, 0)
	if err != nil {
		t.Fatalf("CalcRequired: %v", err)
	}

	// "x" + "ab": extent = 24 + 1 + 2 + 2 = 29. Size the arena to fit this
	// record; Init rounds the region up to a multiple of 8, so the arena is
	// 32 bytes and only 3 bytes of tail room remain after it.
	const firstExtent = 24 + 1 + 2 + 2
	h, err := Init(Config{MemorySize: stat.MemorySize + firstExtent, MaxBuckets: maxBuckets, MaxFreeBlocks: maxFreeBlocks})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer h.Destroy()

	mustInsert(t, h, "x", "ab")
	if err := h.Delete([]byte("x")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// The freed block's stored size is firstExtent+8 = 37. "yy"+"ddddd"
	// needs exactly 33, leaving a remainder of 4 < wordSize: unusable.
	err = h.Insert([]byte("yy"), []byte("ddddd"))
	if err != ErrNoSpace {
		t.Fatalf("Insert = %v, want ErrNoSpace", err)
	}
}

func newScenarioHandle(t *testing.T, memorySize, maxBuckets, maxFreeBlocks uint64) *Handle {
	t.Helper()
	h, err := Init(Config{MemorySize: memorySize, MaxBuckets: maxBuckets, MaxFreeBlocks: maxFreeBlocks})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = h.Destroy() })
	return h
}

func mustInsert(t *testing.T, h *Handle, key, value string) {
	t.Helper()
	if err := h.Insert([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Insert(%q, %q): %v", key, value, err)
	}
}

func mustSearchEquals(t *testing.T, h *Handle, key, want string) {
	t.Helper()
	got, err := h.Search([]byte(key))
	if err != nil {
		t.Fatalf("Search(%q): %v", key, err)
	}
	if string(got) != want {
		t.Fatalf("Search(%q) = %q, want %q", key, got, want)
	}
}

// findColliding returns two distinct keys whose djb2 hash lands in the same
// bucket modulo maxBuckets.
func findColliding(t *testing.T, maxBuckets uint64) (string, string) {
	t.Helper()

	seen := make(map[uint64]string)
	for i := 0; i < 10000; i++ {
		key := fmt.Sprintf("key-%d", i)
		bucket := djb2Hash([]byte(key)) % maxBuckets
		if other, ok := seen[bucket]; ok {
			return other, key
		}
		seen[bucket] = key
	}
	t.Fatal("could not find two colliding keys")
	return "", ""
}
