package shmhash

import "errors"

// Sentinel errors returned by this package. Callers should compare with
// errors.Is rather than matching error strings.
var (
	// ErrTooSmall is returned when the requested memory size cannot hold
	// the header, occupancy bitmap, bucket table, and free-list for the
	// requested bucket and free-block counts, or when neither a memory size
	// nor a bucket count is given. A region whose data arena is empty is
	// accepted.
	ErrTooSmall = errors.New("shmhash: memory size too small")

	// ErrMapFailed is returned when the backing memory could not be
	// obtained from the operating system.
	ErrMapFailed = errors.New("shmhash: map failed")

	// ErrLockFailed is returned when the region's lock could not be
	// acquired, or when an operation is attempted against a Handle that
	// has already been destroyed.
	ErrLockFailed = errors.New("shmhash: lock failed")

	// ErrNoEmptyBucket is returned by Insert when every bucket along a
	// key's probe sequence is occupied by a different key.
	ErrNoEmptyBucket = errors.New("shmhash: no empty bucket")

	// ErrNoEmptyFreeBlock is returned when the free-list is full and a
	// record's old space cannot be reclaimed.
	ErrNoEmptyFreeBlock = errors.New("shmhash: no empty free block")

	// ErrNoSpace is returned by Insert when neither the data arena's tail
	// nor any free block can hold the new record.
	ErrNoSpace = errors.New("shmhash: no space")

	// ErrNotFound is returned by Search and Delete when no record with the
	// given key exists.
	ErrNotFound = errors.New("shmhash: not found")
)
