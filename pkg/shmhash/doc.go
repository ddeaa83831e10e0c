// Package shmhash implements a fixed-capacity key/value store backed by a
// single contiguous region of memory.
//
// The region holds its own header, an occupancy bitmap, an open-addressed
// bucket table, a size-sorted free-list, and a data arena that grows at its
// tail and reuses free-list blocks once the tail is full, all
// addressed through relative offsets rather than pointers. That makes the
// region layout independent of where it happens to be mapped, which is what
// lets [Handle] sit on top of memory obtained from an OS primitive such as
// an anonymous shared mapping (see internal/sysmem) without the allocator
// itself ever needing to know about mmap, forks, or other processes.
//
// # Basic usage
//
//	h, err := shmhash.Init(shmhash.Config{
//		MemorySize:    1 << 20,
//		MaxBuckets:    4096,
//		MaxFreeBlocks: 256,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Destroy()
//
//	if err := h.Insert([]byte("user:42"), []byte("alice")); err != nil {
//		log.Fatal(err)
//	}
//	value, err := h.Search([]byte("user:42"))
//
// # Concurrency
//
// A Handle is safe for concurrent use by multiple goroutines: Insert and
// Delete take an exclusive lock, Search and Stat take a shared lock. A
// Handle may optionally be paired with a companion advisory file lock (see
// [Config.LockPath]) so that writers sharing the same backing region across
// process boundaries still serialize with each other; the in-process
// sync.RWMutex does not extend across processes.
//
// # Error handling
//
// Every failure mode is exposed as one of the package-level sentinel errors
// (ErrTooSmall, ErrNoSpace, ErrNotFound, ...). Callers should compare with
// errors.Is, not string matching.
package shmhash
